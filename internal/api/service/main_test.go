package service

import (
	"os"
	"testing"

	"github.com/aussiebroadwan/userapi/pkg/cryptox"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("service-test-pepper")
	os.Exit(m.Run())
}
