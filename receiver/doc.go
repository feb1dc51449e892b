// Package receiver verifies the signatures QStash attaches to the requests
// it delivers.
//
// Every delivery carries an Upstash-Signature header holding an HS256
// signed JWT. The token names the destination URL in its "sub" claim and
// the base64url encoded SHA-256 digest of the request body in its "body"
// claim. A Receiver checks the signature against the current signing key
// and then the next one, so that deliveries keep verifying while keys are
// rotated.
//
//	rcv, err := receiver.New(receiver.SigningKeyPair{
//		Current: os.Getenv("QSTASH_CURRENT_SIGNING_KEY"),
//		Next:    os.Getenv("QSTASH_NEXT_SIGNING_KEY"),
//	})
//	if err != nil {
//		...
//	}
//
//	err = rcv.Verify(r.Header.Get(receiver.SignatureHeader), body, "https://example.com/api/webhook")
//
// Wrap turns a Receiver into an http.Handler middleware that performs the
// same verification, optionally rejecting replayed tokens through a
// ReplayGuard.
package receiver
