package transport

import (
	"net/http"
)

// AuthTransport is an http.RoundTripper that adds a bearer token to
// outgoing requests.
type AuthTransport struct {
	// Transport is the underlying RoundTripper.
	// If nil, http.DefaultTransport is used.
	Transport http.RoundTripper

	// Token is sent as "Authorization: Bearer <Token>".
	Token string
}

// NewAuthTransport creates a new AuthTransport wrapping rt.
func NewAuthTransport(token string, rt http.RoundTripper) *AuthTransport {
	return &AuthTransport{
		Transport: rt,
		Token:     token,
	}
}

// RoundTrip implements http.RoundTripper. An Authorization header already
// present on the request is left untouched.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if req.Header.Get("Authorization") != "" || t.Token == "" {
		return transport.RoundTrip(req)
	}

	// RoundTrippers must not modify the original request
	authReq := req.Clone(req.Context())
	authReq.Header.Set("Authorization", "Bearer "+t.Token)
	return transport.RoundTrip(authReq)
}

// wrapClient returns a shallow copy of hc whose transport adds the token.
func wrapClient(hc *http.Client, token string) *http.Client {
	if hc == nil {
		hc = &http.Client{}
	}
	wrapped := *hc
	wrapped.Transport = NewAuthTransport(token, hc.Transport)
	return &wrapped
}
