package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/auth"
	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/dbtest"
	"github.com/nurpe/cleaning-contracts/internal/excel"
	"github.com/nurpe/cleaning-contracts/internal/http/middleware"
	"github.com/nurpe/cleaning-contracts/internal/integration"
	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/pdf"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	provider string
	stranger string
	staff    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	services := service.New(service.Deps{
		Store:    repository.NewStore(dbtest.Open(t)),
		Notifier: integration.NewLogNotifier(log),
		Calendar: integration.NewLogCalendar(log),
		Renderer: pdf.NewGenerator(),
		Ledger:   excel.NewGenerator(),
		Workflow: config.DefaultWorkflow(),
		Log:      log,
	})

	parser := auth.NewParser("test-secret")
	issue := func(p model.Principal) string {
		token, err := parser.Issue(p, time.Hour)
		require.NoError(t, err)
		return token
	}

	handler := NewHandler(services, log)
	return &testServer{
		t:        t,
		router:   NewRouter(handler, middleware.Auth(parser), "test", []string{"https://app.example.com"}),
		provider: issue(model.Principal{UserID: 1, ProviderID: 7, Role: model.RoleProvider}),
		stranger: issue(model.Principal{UserID: 2, ProviderID: 8, Role: model.RoleProvider}),
		staff:    issue(model.Principal{UserID: 3, ProviderID: 7, Role: model.RoleStaff}),
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// newContract creates a client and a weekly contract, returning the
// contract's public id.
func (s *testServer) newContract() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/clients", s.provider, gin.H{
		"business_name": "Acme Dental",
		"email":         "ops@acme.example.com",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	clientID := decode(s.t, rec)["id"].(string)

	rec = s.do(http.MethodPost, "/contracts", s.provider, gin.H{
		"client_id":   clientID,
		"title":       "Office cleaning",
		"frequency":   "weekly",
		"total_value": 1200,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	contract := decode(s.t, rec)
	require.Equal(s.t, "new", contract["status"])
	return contract["id"].(string)
}

func futureSlot(days int) gin.H {
	return gin.H{
		"date":       time.Now().UTC().AddDate(0, 0, days).Format(time.DateOnly),
		"start_time": "09:00",
		"end_time":   "12:00",
	}
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/contracts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/contracts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/contracts", s.provider, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSigningAndSchedulingFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.newContract()

	rec := s.do(http.MethodPost, "/contracts/"+id+"/sign", s.provider, gin.H{"signature": "provider.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "new", decode(t, rec)["status"])

	rec = s.do(http.MethodPost, "/public/contracts/"+id+"/sign", "", gin.H{"signature": "client.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "signed", decode(t, rec)["status"])

	slot := futureSlot(3)
	rec = s.do(http.MethodPost, "/contracts/"+id+"/proposals", s.provider, gin.H{
		"time_slots": []gin.H{slot, futureSlot(4)},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	proposalID := decode(t, rec)["public_id"].(string)

	rec = s.do(http.MethodGet, "/public/proposals/"+proposalID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])

	rec = s.do(http.MethodPost, "/public/proposals/"+proposalID+"/accept", "", gin.H{"selected_slot": slot})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	schedule := decode(t, rec)
	assert.Equal(t, "pending", schedule["approval_status"])
	scheduleID := uintString(schedule["id"])

	rec = s.do(http.MethodPost, "/schedules/"+scheduleID+"/accept", s.staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/schedules/"+scheduleID+"/accept", s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", decode(t, rec)["approval_status"])

	rec = s.do(http.MethodGet, "/contracts/"+id, s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode(t, rec)
	contract := details["contract"].(map[string]any)
	assert.Equal(t, "completed", contract["client_onboarding_status"])
	assert.Equal(t, "scheduled", details["client"].(map[string]any)["status"])

	rec = s.do(http.MethodGet, "/schedules?contract_id="+id+"&approval_status=accepted", s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodGet, "/contracts/"+id+"/pdf", s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.newContract()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"bad uuid", http.MethodGet, "/contracts/not-a-uuid", s.provider, nil, http.StatusBadRequest},
		{"bad schedule id", http.MethodPost, "/schedules/abc/accept", s.provider, nil, http.StatusBadRequest},
		{"foreign provider", http.MethodGet, "/contracts/" + id, s.stranger, nil, http.StatusNotFound},
		{"illegal transition", http.MethodPatch, "/contracts/" + id + "/status", s.provider, gin.H{"status": "active"}, http.StatusBadRequest},
		{"unknown status", http.MethodPatch, "/contracts/" + id + "/status", s.provider, gin.H{"status": "paused"}, http.StatusBadRequest},
		{"staff signing", http.MethodPost, "/contracts/" + id + "/sign", s.staff, gin.H{"signature": "x.png"}, http.StatusForbidden},
		{"booking before signature", http.MethodPost, "/public/contracts/" + id + "/bookings", "", gin.H{"slot": futureSlot(2)}, http.StatusConflict},
		{"malformed json", http.MethodPost, "/public/contracts/" + id + "/revision", "", "nope", http.StatusBadRequest},
		{"missing signature", http.MethodPost, "/public/contracts/" + id + "/sign", "", gin.H{}, http.StatusBadRequest},
		{"bad date filter", http.MethodGet, "/visits?from=yesterday", s.provider, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec), "error")
		})
	}
}

func TestCancelAndRevision(t *testing.T) {
	s := newTestServer(t)
	id := s.newContract()

	rec := s.do(http.MethodPost, "/public/contracts/"+id+"/revision", "", gin.H{
		"revision_type":  "pricing",
		"revision_notes": "Please drop the window add-on",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["revision_count"])

	rec = s.do(http.MethodPost, "/contracts/"+id+"/cancel", s.provider, gin.H{"reason": "client went elsewhere"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = s.do(http.MethodGet, "/contracts?status=cancelled", s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodDelete, "/contracts/"+id, s.provider, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/contracts/"+id, s.provider, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPricingAndLedgerExport(t *testing.T) {
	s := newTestServer(t)

	job := gin.H{"squareFootage": 2000, "cleaningFrequency": "weekly"}
	rec := s.do(http.MethodPost, "/quotes/preview", s.provider, job)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/pricing", s.provider, gin.H{
		"pricing_model":   "sqft",
		"rate_per_sqft":   0.1,
		"minimum_charge":  50,
		"discount_weekly": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "general", decode(t, rec)["hourly_rate_mode"])

	rec = s.do(http.MethodPost, "/quotes/preview", s.provider, job)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 180, decode(t, rec)["final_price"])

	rec = s.do(http.MethodGet, "/visits/export", s.provider, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/contracts", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2026-03-10", "2026-03-10T08:30:00", "2026-03-10T08:30:00Z"} {
		parsed, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "2026-03-10", parsed.Format(time.DateOnly))
	}
	_, err := parseDate("10/03/2026")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func uintString(v any) string {
	return strconv.FormatFloat(v.(float64), 'f', 0, 64)
}
