package receiver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/lestrrat-go/qstash/config"
)

const (
	// SignatureHeader is the request header carrying the signed token.
	SignatureHeader = "Upstash-Signature"

	// Issuer is the expected value of the "iss" claim.
	Issuer = "Upstash"

	bodyClaim = "body"
)

// SigningKeyPair holds the two signing keys of a QStash account. Next is
// the key that becomes Current at the next rotation.
type SigningKeyPair struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// Claims is the decoded payload of a verified token.
type Claims struct {
	Issuer    string
	Subject   string
	BodyHash  string
	Audience  []string
	TokenID   string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

// Receiver verifies signed deliveries. It is immutable and safe for
// concurrent use.
type Receiver struct {
	keys      []string
	tolerance time.Duration
	clock     Clock
}

// New creates a Receiver. Empty keys are skipped; at least one key must be
// given.
func New(keys SigningKeyPair, options ...ReceiverOption) (*Receiver, error) {
	var list []string
	for _, k := range []string{keys.Current, keys.Next} {
		if k != "" {
			list = append(list, k)
		}
	}
	if len(list) == 0 {
		return nil, ErrNoSigningKey
	}

	r := &Receiver{
		keys:  list,
		clock: SystemClock{},
	}
	for _, opt := range options {
		switch opt.Ident() {
		case identClockTolerance{}:
			r.tolerance = opt.Value().(time.Duration)
		case identClock{}:
			if c := opt.Value().(Clock); c != nil {
				r.clock = c
			}
		}
	}
	return r, nil
}

// NewFromConfig creates a Receiver from the signing keys in cfg.
func NewFromConfig(cfg *config.Config, options ...ReceiverOption) (*Receiver, error) {
	return New(SigningKeyPair{
		Current: cfg.CurrentSigningKey,
		Next:    cfg.NextSigningKey,
	}, options...)
}

// Verify checks that signature is a valid token issued by QStash for a
// delivery of body to url. See VerifyClaims.
func (r *Receiver) Verify(signature string, body []byte, url string, options ...VerifyOption) error {
	_, err := r.VerifyClaims(signature, body, url, options...)
	return err
}

// VerifyClaims verifies signature and returns its claims.
//
// The checks run in a fixed order and the first failure is returned as a
// *SignatureError: token structure, algorithm, signature (current key,
// then next key), issuer, validity window, destination url, body hash.
func (r *Receiver) VerifyClaims(signature string, body []byte, url string, options ...VerifyOption) (*Claims, error) {
	tolerance := r.tolerance
	clock := r.clock
	for _, opt := range options {
		switch opt.Ident() {
		case identClockTolerance{}:
			tolerance = opt.Value().(time.Duration)
		case identClock{}:
			if c := opt.Value().(Clock); c != nil {
				clock = c
			}
		}
	}

	buf := []byte(signature)
	msg, err := jws.Parse(buf, jws.WithCompact())
	if err != nil {
		return nil, newSignatureError(ErrMalformedToken, err)
	}

	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, newSignatureError(ErrMalformedToken, fmt.Errorf("expected 1 signature, got %d", len(sigs)))
	}

	alg, ok := sigs[0].ProtectedHeaders().Algorithm()
	if !ok || alg.String() != jwa.HS256().String() {
		return nil, newSignatureError(ErrInvalidAlgorithm, fmt.Errorf("got %q", alg.String()))
	}

	payload, err := r.verifySignature(buf)
	if err != nil {
		return nil, err
	}

	tok, err := jwt.Parse(payload, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, newSignatureError(ErrMalformedToken, err)
	}

	claims, err := claimsFromToken(tok)
	if err != nil {
		return nil, newSignatureError(ErrMalformedToken, err)
	}

	if claims.Issuer != Issuer {
		return nil, newSignatureError(ErrInvalidIssuer, fmt.Errorf("got %q", claims.Issuer))
	}

	now := clock.Now()
	if now.Before(claims.NotBefore.Add(-tolerance)) {
		return nil, newSignatureError(ErrTokenNotYetValid, nil)
	}
	if now.After(claims.ExpiresAt.Add(tolerance)) {
		return nil, newSignatureError(ErrTokenExpired, nil)
	}

	if claims.Subject != url {
		return nil, newSignatureError(ErrInvalidDestination, fmt.Errorf("got %q, want %q", claims.Subject, url))
	}

	sum := sha256.Sum256(body)
	computed := base64.RawURLEncoding.EncodeToString(sum[:])
	if !hmac.Equal([]byte(computed), []byte(strings.TrimRight(claims.BodyHash, "="))) {
		return nil, newSignatureError(ErrBodyMismatch, nil)
	}

	return claims, nil
}

// verifySignature tries each key in order and returns the verified
// payload of the first key that matches.
func (r *Receiver) verifySignature(buf []byte) ([]byte, error) {
	var lastErr error
	for _, key := range r.keys {
		payload, err := jws.Verify(buf, jws.WithKey(jwa.HS256(), []byte(key)))
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return nil, newSignatureError(ErrInvalidSignature, lastErr)
}

func claimsFromToken(tok jwt.Token) (*Claims, error) {
	var claims Claims
	claims.Issuer, _ = tok.Issuer()
	claims.Subject, _ = tok.Subject()
	claims.Audience, _ = tok.Audience()
	claims.TokenID, _ = tok.JwtID()
	claims.IssuedAt, _ = tok.IssuedAt()

	var ok bool
	if claims.NotBefore, ok = tok.NotBefore(); !ok {
		return nil, fmt.Errorf("missing %q claim", jwt.NotBeforeKey)
	}
	if claims.ExpiresAt, ok = tok.Expiration(); !ok {
		return nil, fmt.Errorf("missing %q claim", jwt.ExpirationKey)
	}
	if err := tok.Get(bodyClaim, &claims.BodyHash); err != nil {
		return nil, fmt.Errorf("failed to read %q claim: %w", bodyClaim, err)
	}
	return &claims, nil
}
