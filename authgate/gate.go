package authgate

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/sseplex/errors"
	"github.com/kbukum/sseplex/logger"
)

// ChallengeHeader is sent with every rejection.
const ChallengeHeader = `Bearer realm="Restricted area", error="invalid_token"`

// ContextKey is the gin context key holding *Claims after a successful check.
const ContextKey = "authgate.claims"

// Claims are the token claims the gate understands.
type Claims struct {
	gojwt.RegisteredClaims
}

// Gate verifies bearer tokens against a Policy.
type Gate struct {
	policy    Policy
	algorithm string
	leeway    time.Duration
	now       func() time.Time
	log       *logger.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithAlgorithm restricts tokens to one HMAC algorithm. Default HS256.
func WithAlgorithm(alg string) Option {
	return func(g *Gate) {
		if alg != "" {
			g.algorithm = alg
		}
	}
}

// WithLeeway allows for clock skew when checking exp.
func WithLeeway(d time.Duration) Option {
	return func(g *Gate) { g.leeway = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLogger sets the gate logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gate) { g.log = l }
}

// New creates a gate for policy.
func New(policy Policy, opts ...Option) *Gate {
	g := &Gate{
		policy:    policy,
		algorithm: HS256,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get("authgate")
	}
	return g
}

// NewFromConfig creates a gate using VerbPolicy.
func NewFromConfig(cfg Config, opts ...Option) *Gate {
	cfg.ApplyDefaults()
	opts = append([]Option{WithAlgorithm(cfg.Algorithm), WithLeeway(cfg.Leeway)}, opts...)
	return New(NewVerbPolicy(cfg), opts...)
}

// Verify checks the Authorization header value for a request. The returned
// error is always an *errors.AppError with status 401.
func (g *Gate) Verify(verb, path, authorization string) (*Claims, error) {
	token, err := bearerToken(authorization)
	if err != nil {
		return nil, err
	}

	creds := g.policy.Resolve(verb, path)
	if creds.Secret == "" || creds.Subject == "" {
		return nil, errors.InvalidToken().WithDetail("reason", "no credentials for "+verb)
	}

	claims := &Claims{}
	_, err = gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (interface{}, error) {
		return []byte(creds.Secret), nil
	},
		gojwt.WithValidMethods([]string{g.algorithm}),
		gojwt.WithExpirationRequired(),
		gojwt.WithSubject(creds.Subject),
		gojwt.WithLeeway(g.leeway),
		gojwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if stderrors.Is(err, gojwt.ErrTokenExpired) {
			return nil, errors.TokenExpired().WithCause(err)
		}
		return nil, errors.InvalidToken().WithCause(err)
	}
	return claims, nil
}

// Middleware rejects requests whose token does not verify. Accepted requests
// continue unchanged with the claims stored under ContextKey.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := g.Verify(c.Request.Method, c.Request.URL.Path, c.GetHeader("Authorization"))
		if err != nil {
			appErr := errors.From(err)
			g.log.WithContext(c.Request.Context()).Debug("Request rejected", logger.Fields(
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"code", string(appErr.Code),
			))
			c.Header("WWW-Authenticate", ChallengeHeader)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Set(ContextKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Middleware, if any.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Unauthorized("Authorization header required.")
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.Unauthorized(fmt.Sprintf("Expected %q authorization scheme.", "Bearer"))
	}
	return token, nil
}

// Issue signs a token that the gate accepts for verb and path until ttl
// has passed.
func (g *Gate) Issue(verb, path string, ttl time.Duration) (string, error) {
	creds := g.policy.Resolve(verb, path)
	if creds.Secret == "" || creds.Subject == "" {
		return "", fmt.Errorf("authgate: no credentials for %s", verb)
	}
	now := g.now()
	claims := &Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   creds.Subject,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}}
	return gojwt.NewWithClaims(gojwt.GetSigningMethod(g.algorithm), claims).SignedString([]byte(creds.Secret))
}
