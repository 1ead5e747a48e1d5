package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/core/journal"
	"github.com/kilianp07/raildispatch/core/model"
)

type fakeBackend struct {
	status    dispatch.Status
	submitted []model.Request
	err       error
}

func (f *fakeBackend) Status() dispatch.Status { return f.status }

func (f *fakeBackend) Submit(req model.Request) (*model.Passenger, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, err := req.Passenger()
	if err != nil {
		return nil, err
	}
	f.submitted = append(f.submitted, req)
	return p, nil
}

type memStore struct {
	records []journal.Record
	last    journal.Query
}

func (m *memStore) Append(_ context.Context, r journal.Record) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memStore) Query(_ context.Context, q journal.Query) ([]journal.Record, error) {
	m.last = q
	var out []journal.Record
	for _, r := range m.records {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func newTestRouter(token string, b Backend, s journal.Store) http.Handler {
	cfg := Config{Token: token}
	cfg.SetDefaults()
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	return NewRouter(cfg, NewHandler(b, s), metricsHandler)
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestRouter("secret", &fakeBackend{}, nil)
	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusRequiresToken(t *testing.T) {
	b := &fakeBackend{status: dispatch.Status{Station: "B", Cycles: 3}}
	h := newTestRouter("secret", b, nil)

	rec := do(t, h, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/status", "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var got dispatch.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.Station("B"), got.Station)
	assert.Equal(t, 3, got.Cycles)
}

func TestPostRequest(t *testing.T) {
	b := &fakeBackend{}
	h := newTestRouter("", b, nil)

	rec := do(t, h, http.MethodPost, "/api/requests", `{"origin":"A","destination":"C"}`, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var p model.Passenger
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.Station("C"), p.Destination)
	require.Len(t, b.submitted, 1)
}

func TestPostRequestRejected(t *testing.T) {
	h := newTestRouter("", &fakeBackend{}, nil)

	rec := do(t, h, http.MethodPost, "/api/requests", `{"origin":"A","destination":"A"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "request rejected", resp.Error)
	assert.NotEmpty(t, resp.Details["reason"])

	rec = do(t, h, http.MethodPost, "/api/requests", `{"origin":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/requests", `{"origin":"A","destination":"B","speed":3}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostRequestUnavailable(t *testing.T) {
	h := newTestRouter("", &fakeBackend{err: ErrUnavailable}, nil)
	rec := do(t, h, http.MethodPost, "/api/requests", `{"origin":"A","destination":"B"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetJournal(t *testing.T) {
	s := &memStore{records: []journal.Record{
		{Cycle: 1, StartStation: "A", EndStation: "B"},
		{Cycle: 2, StartStation: "B", EndStation: "D"},
		{Cycle: 3, StartStation: "D", EndStation: "C"},
	}}
	h := newTestRouter("secret", &fakeBackend{}, s)

	rec := do(t, h, http.MethodGet, "/api/journal?from=2&to=3&station=D", "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, journal.Query{FromCycle: 2, ToCycle: 3, Station: "D"}, s.last)
}

func TestGetJournalByRun(t *testing.T) {
	s := &memStore{records: []journal.Record{
		{RunID: "r1", Cycle: 1, StartStation: "A", EndStation: "B"},
		{RunID: "r2", Cycle: 1, StartStation: "A", EndStation: "C"},
	}}
	h := newTestRouter("", &fakeBackend{}, s)

	rec := do(t, h, http.MethodGet, "/api/journal?run_id=r2&from=1&to=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "r2", resp.Records[0].RunID)
	assert.Equal(t, journal.Query{RunID: "r2", FromCycle: 1, ToCycle: 1}, s.last)
}

func TestGetJournalBadParams(t *testing.T) {
	h := newTestRouter("", &fakeBackend{}, &memStore{})
	for _, target := range []string{"/api/journal?from=x", "/api/journal?to=-1"} {
		rec := do(t, h, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetJournalEmpty(t *testing.T) {
	h := newTestRouter("", &fakeBackend{}, nil)
	rec := do(t, h, http.MethodGet, "/api/journal", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, ":8080", c.Address)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.NoError(t, c.Validate())
}
