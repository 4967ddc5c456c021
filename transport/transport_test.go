package transport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/net/http2"

	"github.com/kbukum/sseplex/authgate"
	"github.com/kbukum/sseplex/broker"
	"github.com/kbukum/sseplex/component"
	"github.com/kbukum/sseplex/errors"
	"github.com/kbukum/sseplex/logger"
	"github.com/kbukum/sseplex/observability"
	"github.com/kbukum/sseplex/relay"
	"github.com/kbukum/sseplex/resilience"
	"github.com/kbukum/sseplex/security"
	"github.com/kbukum/sseplex/security/tlstest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string) error {
	return broker.ErrBrokerStopped
}

// newTestServer wires a running broker behind the routes and serves them.
func newTestServer(t *testing.T, cfg Config, deps Deps) (*httptest.Server, *broker.Broker) {
	t.Helper()
	cfg.ApplyDefaults()

	b := broker.New(broker.WithLogger(logger.Nop()))
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	if deps.Broker == nil {
		deps.Broker = b
	}
	if deps.Publisher == nil {
		deps.Publisher = relay.NewLocal(b)
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware()
	Register(srv.Engine(), cfg.URLPrefix, deps)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	// Runs before ts.Close so that open streams end.
	t.Cleanup(func() {
		cancel()
		<-b.Exited()
	})
	return ts, b
}

func waitSubscribers(t *testing.T, b *broker.Broker, topic string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := b.SubscriberCount(context.Background(), topic)
		if err != nil {
			t.Fatalf("SubscriberCount: %v", err)
		}
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("topic %q: expected %d subscribers, have %d", topic, want, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func subscribe(t *testing.T, client *http.Client, rawURL string, header http.Header) (*http.Response, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("subscribe: %v", err)
	}
	return resp, func() {
		cancel()
		resp.Body.Close()
	}
}

func post(t *testing.T, client *http.Client, rawURL, text string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(url.Values{"text": {text}}.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// readFrame reads one SSE frame up to and including the blank line.
func readFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		frame string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		var sb strings.Builder
		for {
			line, err := r.ReadString('\n')
			sb.WriteString(line)
			if err != nil {
				ch <- result{sb.String(), err}
				return
			}
			if line == "\n" {
				ch <- result{sb.String(), nil}
				return
			}
		}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read frame: %v (partial %q)", res.err, res.frame)
		}
		return res.frame
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func errorCode(t *testing.T, resp *http.Response) errors.ErrorCode {
	t.Helper()
	var er errors.ErrorResponse
	if err := json.Unmarshal([]byte(body(t, resp)), &er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return er.Error.Code
}

func TestSubscribeAndPublish(t *testing.T) {
	ts, b := newTestServer(t, Config{}, Deps{})

	resp, closeStream := subscribe(t, ts.Client(), ts.URL+"/news", nil)
	defer closeStream()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	waitSubscribers(t, b, "news", 1)

	r := post(t, ts.Client(), ts.URL+"/news", "hello", nil)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", r.StatusCode)
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}
	if got := body(t, r); got != "posted" {
		t.Errorf("expected posted, got %q", got)
	}

	body(t, post(t, ts.Client(), ts.URL+"/sports", "ignored", nil))
	body(t, post(t, ts.Client(), ts.URL+"/news", "line1\nline2", nil))

	reader := bufio.NewReader(resp.Body)
	if got := readFrame(t, reader); got != "data: hello\n\n" {
		t.Errorf("unexpected first frame %q", got)
	}
	if got := readFrame(t, reader); got != "data: line1\ndata: line2\n\n" {
		t.Errorf("unexpected second frame %q", got)
	}
}

func TestClientDisconnectRemovesTopic(t *testing.T) {
	ts, b := newTestServer(t, Config{}, Deps{})

	_, closeStream := subscribe(t, ts.Client(), ts.URL+"/news", nil)
	waitSubscribers(t, b, "news", 1)

	closeStream()
	waitSubscribers(t, b, "news", 0)

	topics, err := b.Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("expected no topics after disconnect, got %v", topics)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, Deps{})

	r := post(t, ts.Client(), ts.URL+"/nobody", "hello", nil)
	if r.StatusCode != http.StatusOK || body(t, r) != "posted" {
		t.Fatalf("expected 200 posted, got %d", r.StatusCode)
	}
}

func TestPublishMissingText(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, Deps{})

	resp, err := ts.Client().Post(ts.URL+"/news", "application/x-www-form-urlencoded", strings.NewReader("other=1"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != errors.ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", code)
	}
}

func TestPublishFailure(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, Deps{Publisher: failingPublisher{}})

	r := post(t, ts.Client(), ts.URL+"/news", "hello", nil)
	if r.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", r.StatusCode)
	}
	if code := errorCode(t, r); code != errors.ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", code)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestPublishFailureLogsTokenSubject(t *testing.T) {
	var out lockedBuffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: logger.FormatJSON}, "sseplex", &out)
	gate := authgate.NewFromConfig(authgate.Config{Secret: "s3cret"}, authgate.WithLogger(logger.Nop()))
	ts, _ := newTestServer(t, Config{}, Deps{Gate: gate, Publisher: failingPublisher{}, Log: log})

	r := post(t, ts.Client(), ts.URL+"/news", "hello", bearer(t, "s3crets3cret", time.Now().Add(time.Hour)))
	body(t, r)
	if r.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", r.StatusCode)
	}
	line := out.String()
	if !strings.Contains(line, `"message":"Publish failed"`) || !strings.Contains(line, `"subject":"sseplex"`) {
		t.Errorf("expected the failure logged with the token subject, got %q", line)
	}
}

func TestURLPrefix(t *testing.T) {
	ts, b := newTestServer(t, Config{URLPrefix: "events/"}, Deps{})

	resp, closeStream := subscribe(t, ts.Client(), ts.URL+"/events/news", nil)
	defer closeStream()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 under prefix, got %d", resp.StatusCode)
	}
	waitSubscribers(t, b, "news", 1)

	r := post(t, ts.Client(), ts.URL+"/news", "hello", nil)
	body(t, r)
	if r.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 outside prefix, got %d", r.StatusCode)
	}
}

func TestIndexAndHealth(t *testing.T) {
	health := func(context.Context) *observability.ServiceHealth {
		sh := observability.NewServiceHealth("sseplex", "test")
		sh.AddComponent(component.Health{Name: "broker", Status: component.StatusHealthy})
		return sh
	}
	ts, _ := newTestServer(t, Config{URLPrefix: "/events"}, Deps{Health: health})

	resp, err := ts.Client().Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	page := body(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("expected 200 text/html, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(page, "/events") {
		t.Error("expected index page to mention the prefix")
	}

	resp, err = ts.Client().Get(ts.URL + HealthPath)
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	var sh observability.ServiceHealth
	if err := json.Unmarshal([]byte(body(t, resp)), &sh); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.StatusCode != http.StatusOK || sh.Status != observability.HealthStatusUp || len(sh.Components) != 1 {
		t.Errorf("unexpected health %d %+v", resp.StatusCode, sh)
	}
}

func TestHealthDown(t *testing.T) {
	health := func(context.Context) *observability.ServiceHealth {
		sh := observability.NewServiceHealth("sseplex", "test")
		sh.AddComponent(component.Health{Name: "relay", Status: component.StatusUnhealthy, Message: "redis down"})
		return sh
	}
	ts, _ := newTestServer(t, Config{}, Deps{Health: health})

	resp, err := ts.Client().Get(ts.URL + HealthPath)
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	body(t, resp)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func bearer(t *testing.T, secret string, exp time.Time) http.Header {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": authgate.DefaultSubject,
		"exp": exp.Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestAuthorizationGate(t *testing.T) {
	gate := authgate.NewFromConfig(authgate.Config{Secret: "s3cret"}, authgate.WithLogger(logger.Nop()))
	ts, b := newTestServer(t, Config{}, Deps{Gate: gate})
	later := time.Now().Add(time.Hour)

	t.Run("missing header", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/news")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
		if got := resp.Header.Get("WWW-Authenticate"); got != authgate.ChallengeHeader {
			t.Errorf("unexpected challenge %q", got)
		}
		if code := errorCode(t, resp); code != errors.ErrCodeUnauthorized {
			t.Errorf("expected UNAUTHORIZED, got %s", code)
		}
	})

	t.Run("subscribe secret cannot publish", func(t *testing.T) {
		r := post(t, ts.Client(), ts.URL+"/news", "hello", bearer(t, "s3cret", later))
		body(t, r)
		if r.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", r.StatusCode)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		resp, closeStream := subscribe(t, ts.Client(), ts.URL+"/news", bearer(t, "s3cret", time.Now().Add(-time.Minute)))
		defer closeStream()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("valid tokens", func(t *testing.T) {
		resp, closeStream := subscribe(t, ts.Client(), ts.URL+"/news", bearer(t, "s3cret", later))
		defer closeStream()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		waitSubscribers(t, b, "news", 1)

		r := post(t, ts.Client(), ts.URL+"/news", "hello", bearer(t, "s3crets3cret", later))
		if r.StatusCode != http.StatusOK || body(t, r) != "posted" {
			t.Fatalf("expected 200 posted, got %d", r.StatusCode)
		}
		if got := readFrame(t, bufio.NewReader(resp.Body)); got != "data: hello\n\n" {
			t.Errorf("unexpected frame %q", got)
		}
	})

	t.Run("index and health stay open", func(t *testing.T) {
		for _, path := range []string{"/", HealthPath} {
			resp, err := ts.Client().Get(ts.URL + path)
			if err != nil {
				t.Fatalf("get %s: %v", path, err)
			}
			body(t, resp)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
			}
		}
	})
}

func TestPublishRateLimit(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "publish", Rate: 0.001, Burst: 2})
	ts, _ := newTestServer(t, Config{}, Deps{Limiter: limiter, Metrics: metrics})

	var codes []int
	for i := 0; i < 3; i++ {
		r := post(t, ts.Client(), ts.URL+"/news", "hello", nil)
		body(t, r)
		codes = append(codes, r.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200, 200, 429, got %v", codes)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var rejected int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == "sseplex.requests.rejected" {
				for _, dp := range sum.DataPoints {
					rejected += dp.Value
				}
			}
		}
	}
	if rejected != 1 {
		t.Errorf("expected 1 rejected request, got %d", rejected)
	}
}

func TestBrokerStoppedRejectsSubscribe(t *testing.T) {
	b := broker.New(broker.WithLogger(logger.Nop()))
	b.Stop()
	ts, _ := newTestServer(t, Config{}, Deps{Broker: b})

	resp, err := ts.Client().Get(ts.URL + "/news")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != errors.ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", code)
	}
}

func TestHTTP2Cleartext(t *testing.T) {
	ts, b := newTestServer(t, Config{}, Deps{})

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	defer client.CloseIdleConnections()

	resp, closeStream := subscribe(t, client, ts.URL+"/news", nil)
	defer closeStream()
	if resp.ProtoMajor != 2 {
		t.Fatalf("expected HTTP/2, got %s", resp.Proto)
	}
	waitSubscribers(t, b, "news", 1)

	r := post(t, client, ts.URL+"/news", "over h2c", nil)
	if r.StatusCode != http.StatusOK || body(t, r) != "posted" {
		t.Fatalf("expected 200 posted, got %d", r.StatusCode)
	}
	if got := readFrame(t, bufio.NewReader(resp.Body)); got != "data: over h2c\n\n" {
		t.Errorf("unexpected frame %q", got)
	}
}

func TestServerLifecycle(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware()
	b := broker.New(broker.WithLogger(logger.Nop()))
	Register(srv.Engine(), cfg.URLPrefix, Deps{Broker: b, Publisher: relay.NewLocal(b), Log: logger.Nop()})

	c := NewComponent(srv)
	if c.Name() != "http-server" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %+v", h)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if strings.HasSuffix(srv.Addr(), ":0") {
		t.Errorf("expected bound port, got %s", srv.Addr())
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("unexpected health %+v", h)
	}

	resp, err := http.Get("http://" + srv.Addr() + HealthPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if srv.Serving() {
		t.Error("expected Serving to be false after Stop")
	}
}

func TestServerStopEndsOpenStreams(t *testing.T) {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware()
	b := broker.New(broker.WithLogger(logger.Nop()))
	go b.Run(context.Background())
	defer b.Stop()
	Register(srv.Engine(), cfg.URLPrefix, Deps{Broker: b, Publisher: relay.NewLocal(b), Log: logger.Nop()})

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, closeStream := subscribe(t, http.DefaultClient, "http://"+srv.Addr()+"/news", nil)
	defer closeStream()
	waitSubscribers(t, b, "news", 1)

	began := time.Now()
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop with an open stream: %v", err)
	}
	if took := time.Since(began); took > 2*time.Second {
		t.Errorf("Stop waited %s for the open stream", took)
	}
	if _, err := io.ReadAll(resp.Body); err != nil {
		t.Logf("stream ended with %v", err)
	}
	waitSubscribers(t, b, "news", 0)
}

func TestServerTLS(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := Config{TLS: security.TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware()
	b := broker.New(broker.WithLogger(logger.Nop()))
	Register(srv.Engine(), cfg.URLPrefix, Deps{Broker: b, Publisher: relay.NewLocal(b), Log: logger.Nop()})

	c := NewComponent(srv)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop(context.Background())
	if d := c.Describe(); !strings.HasPrefix(d.Details, "https://") {
		t.Errorf("unexpected description %+v", d)
	}

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig:   &tls.Config{RootCAs: certs.CertPool},
		ForceAttemptHTTP2: true,
	}}
	resp, err := client.Get("https://" + srv.Addr() + HealthPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.ProtoMajor != 2 {
		t.Errorf("expected HTTP/2 over TLS, got %s", resp.Proto)
	}
}

func TestServerTLSBadCertificate(t *testing.T) {
	cfg := Config{TLS: security.TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}}
	cfg.ApplyDefaults()
	cfg.Port = 0
	if err := New(cfg, logger.Nop()).Start(context.Background()); err == nil {
		t.Fatal("expected missing certificate to fail Start")
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("unexpected default addr %s", cfg.Addr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := cfg
	bad.KeepAlive = "often"
	if err := bad.Validate(); err == nil {
		t.Error("expected keep_alive error")
	}
	bad = cfg
	bad.MaxBodySize = "huge"
	if err := bad.Validate(); err == nil {
		t.Error("expected max_body_size error")
	}
	bad = cfg
	bad.TLS.CertFile = "cert.pem"
	if err := bad.Validate(); err == nil {
		t.Error("expected tls error for a certificate without key")
	}
	bad = cfg
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("expected port error")
	}

	ka := cfg
	ka.KeepAlive = "15s"
	if d, err := ka.KeepAliveInterval(); err != nil || d != 15*time.Second {
		t.Errorf("unexpected keep-alive %v %v", d, err)
	}

	for in, want := range map[string]string{"": "", "/": "", "events": "/events", "/events/": "/events", " a/b ": "/a/b"} {
		if got := NormalizePrefix(in); got != want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
