package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is anything that can sign claims into a compact JWT.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 16

// HMAC signs and verifies tokens with a shared secret using HS256, HS384 or
// HS512.
type HMAC struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	opts   VerifyOptions
}

var (
	_ Signer   = (*HMAC)(nil)
	_ Verifier = (*HMAC)(nil)
)

// NewHMAC returns an HMAC signer/verifier for alg.
func NewHMAC(alg string, secret []byte, opts VerifyOptions) (*HMAC, error) {
	var method *jwt.SigningMethodHMAC
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}

	if len(secret) < MinSecretLength {
		return nil, errors.New("jwtx: secret too short")
	}

	return &HMAC{method: method, secret: secret, opts: opts}, nil
}

func (h *HMAC) Alg() string { return h.method.Alg() }

// Sign returns the signed compact form of claims.
func (h *HMAC) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(h.method, claims).SignedString(h.secret)
}

// Verify checks the signature, algorithm, issuer, type and expiry of token.
func (h *HMAC) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{h.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Claims{}, ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, ErrAlgMismatch
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := claims.ValidateIssuer(h.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateType(TypeAccess); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(h.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
