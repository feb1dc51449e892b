package receiver

import (
	"context"
)

type claimsKey struct{}
type verificationErrorKey struct{}

// WithClaims adds verified claims to the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext retrieves the claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// WithVerificationError adds a verification error to the context.
func WithVerificationError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, verificationErrorKey{}, err)
}

// VerificationErrorFromContext retrieves a verification error from the context.
func VerificationErrorFromContext(ctx context.Context) error {
	if err, ok := ctx.Value(verificationErrorKey{}).(error); ok {
		return err
	}
	return nil
}
