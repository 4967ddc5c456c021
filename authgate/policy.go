package authgate

import "net/http"

// Credentials are what a token must satisfy for one request.
type Credentials struct {
	Secret  string
	Subject string
}

// Policy decides the credentials for a request. Implementations must be pure
// and total over (verb, path): the same input always yields the same answer,
// and an empty Secret or Subject means the request can never be authorized.
type Policy interface {
	Resolve(verb, path string) Credentials
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(verb, path string) Credentials

func (f PolicyFunc) Resolve(verb, path string) Credentials { return f(verb, path) }

// VerbPolicy derives the secret from the HTTP verb: subscribers (GET) sign
// with the base secret and publishers (POST) with the secret repeated twice.
// Other verbs get no secret and are always rejected.
type VerbPolicy struct {
	Secret  string
	Subject string
}

// NewVerbPolicy builds a VerbPolicy from cfg.
func NewVerbPolicy(cfg Config) VerbPolicy {
	cfg.ApplyDefaults()
	return VerbPolicy{Secret: cfg.Secret, Subject: cfg.Subject}
}

func (p VerbPolicy) Resolve(verb, _ string) Credentials {
	switch verb {
	case http.MethodGet:
		return Credentials{Secret: p.Secret, Subject: p.Subject}
	case http.MethodPost:
		return Credentials{Secret: p.Secret + p.Secret, Subject: p.Subject}
	default:
		return Credentials{Subject: p.Subject}
	}
}
