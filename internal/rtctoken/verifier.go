package rtctoken

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/imtaco/rtc-token-server/internal/errors"
)

// Verifier checks tokens produced by NewBuilder for one app certificate.
type Verifier struct {
	secret []byte
	clock  clockwork.Clock
}

func NewVerifier(appCertificate string) *Verifier {
	return newVerifierWithClock(appCertificate, clockwork.NewRealClock())
}

func newVerifierWithClock(appCertificate string, clock clockwork.Clock) *Verifier {
	return &Verifier{
		secret: []byte(appCertificate),
		clock:  clock,
	}
}

// Verify parses the token, rejecting any algorithm other than HS256 and
// tokens that are expired or lack channel claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err, "failed to parse token")
	}

	if claims.AppID == "" || claims.Channel == "" {
		return nil, errors.New(ErrInvalidToken, "missing required fields in token")
	}
	return claims, nil
}
