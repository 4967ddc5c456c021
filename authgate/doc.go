// Package authgate verifies HMAC-signed bearer tokens before a stream is
// opened or a message is published.
//
// A Policy maps each request (verb, path) to the secret and subject the
// token must match; no secret material lives in the gate itself. A token is
// accepted only when its signature verifies, its "sub" claim equals the
// expected subject and its "exp" claim is present and in the future.
//
//	gate := authgate.NewFromConfig(authgate.Config{Secret: "s3cret"})
//	router.Use(gate.Middleware())
package authgate
