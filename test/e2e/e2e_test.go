// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"applicant-portal/internal/common/candidateapi"
	"applicant-portal/internal/common/config"
	"applicant-portal/internal/common/database"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/observability"
	"applicant-portal/internal/common/session"
	applicationcontroller "applicant-portal/internal/form/application-controller"
	draftschema "applicant-portal/internal/form/draft-schema"
	referencedata "applicant-portal/internal/form/reference-data"
	"applicant-portal/internal/web"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	zapLog, _ = zap.NewDevelopment()
	code := m.Run()
	_ = zapLog.Sync()
	os.Exit(code)
}

// candidateService stands in for the backend at BACKEND_BASE_URL.
type candidateService struct {
	server *httptest.Server

	mu         sync.Mutex
	candidates []map[string]interface{}
	headers    []http.Header
}

func newCandidateService(t *testing.T) *candidateService {
	t.Helper()
	cs := &candidateService{}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer e2e-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/jobs":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Platform Engineer"},{"id":2,"name":"Recruiter"}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/job-levels":
			_, _ = io.WriteString(w, `[{"id":"mid","name":"Mid"},{"id":"staff","name":"Staff"}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/candidates":
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			cs.mu.Lock()
			cs.candidates = append(cs.candidates, body)
			cs.headers = append(cs.headers, r.Header.Clone())
			cs.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			body["id"] = "cand-1"
			_ = json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *candidateService) received() ([]map[string]interface{}, []http.Header) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]map[string]interface{}(nil), cs.candidates...), append([]http.Header(nil), cs.headers...)
}

type portal struct {
	cfg     *config.Config
	server  *httptest.Server
	client  *http.Client
	redis   *miniredis.Miniredis
	spans   *tracetest.SpanRecorder
	backend *candidateService
}

func writeConfig(t *testing.T, backendURL, redisAddr string) string {
	t.Helper()
	body := `app:
  name: applicant-portal
  environment: e2e
backend:
  base_url: ` + backendURL + `
  timeout: 3000
  auth_token: ${E2E_CANDIDATE_TOKEN}
form:
  resume_mode: url
session:
  store: redis
  ttl: 60000
  submit_lock_ttl: 5000
database:
  redis:
    address: ` + redisAddr + `
logging:
  level: debug
  format: console
observability:
  service_name: applicant-portal-e2e
  tracing:
    enabled: true
    sample_ratio: 1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// startPortal wires the portal the same way cmd/applicant-portal does, against
// miniredis and the fake candidate service.
func startPortal(t *testing.T) *portal {
	t.Helper()
	t.Setenv("E2E_CANDIDATE_TOKEN", "e2e-token")

	backend := newCandidateService(t)
	mr := miniredis.RunT(t)

	cfg, err := config.LoadFromFile(writeConfig(t, backend.server.URL, mr.Addr()))
	require.NoError(t, err)
	require.True(t, cfg.UsesRedis())

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": cfg.App.Name})

	reg := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	obs := observability.New(cfg.Observability.ServiceName, observability.Options{
		Registerer:    reg,
		Tracing:       cfg.Observability.Tracing.Enabled,
		SampleRatio:   cfg.Observability.Tracing.SampleRatio,
		SpanProcessor: spans,
	})
	t.Cleanup(obs.Shutdown)

	redis, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, redis.Ping(context.Background()))
	t.Cleanup(func() { _ = redis.Close() })

	store, err := session.NewStore(cfg.Session, redis)
	require.NoError(t, err)

	schema, err := draftschema.New(draftschema.LoadConfig(cfg.Form))
	require.NoError(t, err)
	api := candidateapi.New(cfg.Backend, log, obs)

	srv := web.NewServer(web.Deps{
		Config:         cfg,
		Store:          store,
		Loader:         referencedata.NewLoader(referencedata.LoadConfig(cfg.Backend), api, log, obs),
		Forms:          applicationcontroller.NewHandler(applicationcontroller.LoadConfig(cfg.Backend), schema, api, log, obs),
		Schema:         schema,
		Logger:         log,
		HealthCheck:    redis.Ping,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &portal{
		cfg:    cfg,
		server: server,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		redis:   mr,
		spans:   spans,
		backend: backend,
	}
}

func (p *portal) do(t *testing.T, method, path string, values url.Values, jsonAccept bool) (int, string) {
	t.Helper()
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequest(method, p.server.URL+path, body)
	require.NoError(t, err)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if jsonAccept {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := p.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func (p *portal) sessionID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(p.server.URL)
	require.NoError(t, err)
	for _, c := range p.client.Jar.Cookies(u) {
		if c.Name == p.cfg.Session.CookieName {
			return c.Value
		}
	}
	t.Fatal("portal did not set a session cookie")
	return ""
}

func TestApplicationJourney(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	p := startPortal(t)

	t.Log("mounting the form")
	status, page := p.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, page, "Platform Engineer")
	assert.Contains(t, page, "Staff")

	id := p.sessionID(t)
	key := p.cfg.Session.KeyPrefix + id
	assert.True(t, p.redis.Exists(key), "session should be persisted in redis")
	assert.Greater(t, p.redis.TTL(key), time.Duration(0))

	t.Log("validating a partial draft")
	status, body := p.do(t, http.MethodPost, "/application/validate", url.Values{
		"name":          {"Ada"},
		"contact_email": {"ada@"},
	}, true)
	require.Equal(t, http.StatusOK, status)
	var validation struct {
		Valid  bool              `json:"valid"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &validation))
	assert.False(t, validation.Valid)
	assert.Equal(t, "Invalid email address", validation.Fields["contact_email"])
	assert.NotContains(t, validation.Fields, "name")

	t.Log("submitting a complete draft")
	status, body = p.do(t, http.MethodPost, "/application", url.Values{
		"name":          {"Ada"},
		"contact_email": {"ada@example.com"},
		"contact_phone": {"+15550100"},
		"role_id":       {"1"},
		"job_level_id":  {"staff"},
		"resume":        {"https://example.com/ada.pdf"},
	}, true)
	require.Equal(t, http.StatusCreated, status, body)

	var state struct {
		State   string `json:"state"`
		Message string `json:"message"`
		Result  struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, "success", state.State)
	assert.Equal(t, "cand-1", state.Result.ID)
	assert.Equal(t, "Ada", state.Result.Name)

	candidates, headers := p.backend.received()
	require.Len(t, candidates, 1)
	assert.Equal(t, "ada@example.com", candidates[0]["contact_email"])
	assert.Equal(t, "https://example.com/ada.pdf", candidates[0]["resume"])
	assert.NotEmpty(t, headers[0].Get("X-Request-ID"))
	assert.NotEmpty(t, headers[0].Get("Traceparent"), "trace context should reach the candidate service")

	assert.False(t, p.redis.Exists(key+":submit-lock"), "submit lock should be released")

	t.Log("dismissing the success dialog")
	status, body = p.do(t, http.MethodPost, "/application/dismiss", url.Values{}, true)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.Equal(t, "editing", state.State)

	status, page = p.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, page, "ada@example.com", "draft should be cleared after success")

	names := map[string]bool{}
	for _, s := range p.spans.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["application.submit"])
	assert.True(t, names["candidateapi.create_candidate"])
	assert.True(t, names["reference_data.load"])
}

func TestSubmitLockHeldElsewhere(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	p := startPortal(t)

	status, _ := p.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, status)
	id := p.sessionID(t)

	// Another portal instance is mid-submission for this session.
	lockKey := p.cfg.Session.KeyPrefix + id + ":submit-lock"
	require.NoError(t, p.redis.Set(lockKey, "other-instance"))

	status, _ = p.do(t, http.MethodPost, "/application", url.Values{
		"name":          {"Ada"},
		"contact_email": {"ada@example.com"},
		"contact_phone": {"+15550100"},
		"role_id":       {"1"},
		"job_level_id":  {"staff"},
		"resume":        {"https://example.com/ada.pdf"},
	}, true)
	assert.Equal(t, http.StatusConflict, status)

	candidates, _ := p.backend.received()
	assert.Empty(t, candidates)
	v, err := p.redis.Get(lockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v, "foreign lock must not be released")
}

func TestHealthAndMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	p := startPortal(t)

	status, _ := p.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, status)

	status, body := p.do(t, http.MethodGet, "/healthz", nil, true)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "ok")

	status, body = p.do(t, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "reference_load_duration")

	p.redis.Close()
	status, _ = p.do(t, http.MethodGet, "/healthz", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
