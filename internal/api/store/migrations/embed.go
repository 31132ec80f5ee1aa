// Package migrations embeds the golang-migrate SQL files for every
// supported dialect. Files are named {YYYYMMDDHHMMSS}_{name}.{up|down}.sql.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// FS returns the migration set of dialect ("sqlite" or "postgres").
func FS(dialect string) (fs.FS, error) {
	if _, err := fs.Stat(files, dialect); err != nil {
		return nil, err
	}
	return fs.Sub(files, dialect)
}
