package transport

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/sseplex/authgate"
	"github.com/kbukum/sseplex/errors"
	"github.com/kbukum/sseplex/logger"
	"github.com/kbukum/sseplex/observability"
	"github.com/kbukum/sseplex/relay"
	"github.com/kbukum/sseplex/resilience"
	"github.com/kbukum/sseplex/session"
	"github.com/kbukum/sseplex/transport/middleware"
)

// HealthPath is the aggregated health endpoint.
const HealthPath = "/healthz"

// TopicParam is the route parameter holding the topic name.
const TopicParam = "topic"

//go:embed static/index.html
var staticFS embed.FS

// Deps are the collaborators the routes need. Only Broker and Publisher
// are required.
type Deps struct {
	Broker    session.Broker
	Publisher relay.Publisher
	// Gate guards the topic routes. Nil lets every request through.
	Gate *authgate.Gate
	// Limiter throttles POST per client IP. Nil or a zero rate disables it.
	Limiter *resilience.RateLimiter
	Metrics *observability.Metrics
	Health  func(ctx context.Context) *observability.ServiceHealth

	InboxSize int
	KeepAlive time.Duration
	Log       *logger.Logger
}

type handlers struct {
	deps   Deps
	prefix string
}

// Register mounts the index page, the health endpoint and the topic routes
// under prefix on engine.
func Register(engine *gin.Engine, prefix string, deps Deps) {
	if deps.Log == nil {
		deps.Log = logger.Get("transport")
	}
	prefix = NormalizePrefix(prefix)
	h := &handlers{deps: deps, prefix: prefix}

	engine.SetHTMLTemplate(template.Must(template.ParseFS(staticFS, "static/index.html")))
	engine.GET("/", h.index)
	engine.GET(HealthPath, h.health)

	topics := engine.Group(prefix)
	if deps.Metrics != nil {
		topics.Use(countRejections(deps.Metrics))
	}
	if deps.Gate != nil {
		topics.Use(deps.Gate.Middleware())
	}

	publish := []gin.HandlerFunc{}
	if deps.Limiter != nil && deps.Limiter.Enabled() {
		publish = append(publish, middleware.RateLimit(deps.Limiter, middleware.IPBasedKey))
	}
	publish = append(publish, h.publish)

	topics.GET("/:"+TopicParam, h.subscribe)
	topics.POST("/:"+TopicParam, publish...)
}

func (h *handlers) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Prefix": h.prefix})
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Health == nil {
		c.JSON(http.StatusOK, observability.NewServiceHealth("sseplex", ""))
		return
	}
	sh := h.deps.Health(c.Request.Context())
	status := http.StatusOK
	if !sh.Up() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

// subscribe opens an event stream for the topic and blocks until the
// client goes away.
func (h *handlers) subscribe(c *gin.Context) {
	topic := c.Param(TopicParam)
	opts := []session.Option{
		session.WithInboxSize(h.deps.InboxSize),
		session.WithKeepAlive(h.deps.KeepAlive),
		session.WithLogger(h.requestLog(c)),
	}
	if h.deps.Metrics != nil {
		opts = append(opts, session.WithObserver(h.deps.Metrics))
	}

	s := session.New(h.deps.Broker, topic, opts...)
	if err := s.Serve(c.Request.Context(), c.Writer); err != nil {
		RespondWithError(c, err)
	}
}

// publish hands the form field "text" to the publisher.
func (h *handlers) publish(c *gin.Context) {
	topic := c.Param(TopicParam)
	text, ok := c.GetPostForm("text")
	if !ok {
		RespondWithError(c, errors.MissingField("text"))
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanPublish,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			observability.AttrTopic.String(topic),
			observability.AttrRequestID.String(c.GetString(logger.FieldRequestID)),
		),
	)
	defer span.End()

	if err := h.deps.Publisher.Publish(ctx, topic, text); err != nil {
		observability.SetSpanError(ctx, err)
		h.requestLog(c).Error("Publish failed", logger.Fields(
			logger.FieldTopic, topic,
			logger.FieldError, err.Error(),
		))
		RespondWithError(c, errors.ServiceUnavailable("publisher").WithCause(err))
		return
	}

	c.String(http.StatusOK, "posted")
}

// requestLog tags the logger with the request id and, behind the gate, the
// token subject.
func (h *handlers) requestLog(c *gin.Context) *logger.Logger {
	log := h.deps.Log.WithContext(c.Request.Context())
	if claims, ok := authgate.ClaimsFrom(c); ok {
		log = log.WithFields(logger.Fields(logger.FieldSubject, claims.Subject))
	}
	return log
}

// countRejections records 401 and 429 responses on the topic routes.
func countRejections(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		switch status := c.Writer.Status(); status {
		case http.StatusUnauthorized, http.StatusTooManyRequests:
			m.RecordRejected(c.Request.Context(), status)
		}
	}
}
