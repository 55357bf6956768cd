package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anya2605/HealthVerify-AI/internal/fusion"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/source"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
	"github.com/Anya2605/HealthVerify-AI/internal/validator"
)

type stubClient struct {
	name       string
	valid      bool
	confidence float64
}

func (c stubClient) Name() string { return c.name }

func (c stubClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	return model.SourceResult{Valid: c.valid, Confidence: c.confidence, Source: c.name}
}

func goodClients() []source.Client {
	return []source.Client{
		stubClient{model.SourceRegistry, true, 100},
		stubClient{model.SourceAddress, true, 95},
		stubClient{model.SourcePhone, true, 85},
		stubClient{model.SourceWeb, true, 75},
	}
}

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	orch := validator.New(fusion.NewScorer(fusion.DefaultWeights()), goodClients())
	return New(st, orch), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func sampleProvider(id string) model.Provider {
	return model.Provider{
		ProviderID:      id,
		NPI:             "1234567890",
		FullName:        "Dr. Jane Doe",
		PracticeAddress: "123 Main St",
		City:            "Boston",
		State:           "MA",
		ZipCode:         "02101",
		Phone:           "555-123-4567",
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProviderCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/providers", sampleProvider("PRV-1"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/providers/PRV-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var got model.Provider
	decodeBody(t, rec, &got)
	assert.Equal(t, "Dr. Jane Doe", got.FullName)

	rec = doJSON(t, router, http.MethodGet, "/api/providers?state=MA", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = doJSON(t, router, http.MethodGet, "/api/providers/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutProviderRejectsInvalid(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/providers", model.Provider{ProviderID: "PRV-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/providers", model.Provider{FullName: "Dr. Jane Doe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/providers", strings.NewReader("not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestValidateEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	require.NoError(t, st.PutProvider(context.Background(), sampleProvider("PRV-1")))

	rec := doJSON(t, router, http.MethodPost, "/api/validate/PRV-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var res model.ValidationResult
	decodeBody(t, rec, &res)
	assert.Equal(t, model.StatusValidated, res.Status)
	assert.Equal(t, 93.0, res.OverallConfidence)

	stored, err := st.LatestResult(context.Background(), "PRV-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusValidated, stored.Status)

	rec = doJSON(t, router, http.MethodGet, "/api/providers/PRV-1/result", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateMissingProvider(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/validate/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadRequest(t *testing.T, csvBody string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadStartsJob(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	csvBody := "provider_id,name,npi,city,state\n" +
		"PRV-1,Dr. Jane Doe,1234567890,Boston,MA\n" +
		"PRV-2,Dr. John Smith,9876543210,Chicago,IL\n"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, csvBody))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		JobID          string `json:"job_id"`
		TotalProviders int    `json:"total_providers"`
	}
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, 2, resp.TotalProviders)

	srv.Jobs().Wait()

	job, err := st.GetJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, model.JobCompleted, job.Status)
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, 2, job.Succeeded)

	// Both providers got persisted results.
	for _, id := range []string{"PRV-1", "PRV-2"} {
		res, err := st.LatestResult(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, res, id)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/jobs/%s", resp.JobID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("no file"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "npi,city\n123,Boston\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlagsEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	flag := model.Flag{
		ID:         "flag-1",
		ProviderID: "PRV-1",
		Type:       model.FlagCritical,
		Severity:   model.SeverityHigh,
		Field:      model.SourceRegistry,
		Message:    "NPI not found in registry or invalid",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.PutFlags(context.Background(), []model.Flag{flag}))

	rec := doJSON(t, router, http.MethodGet, "/api/flags?unresolved=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = doJSON(t, router, http.MethodPost, "/api/flags/flag-1/resolve", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/flags?unresolved=true", nil)
	decodeBody(t, rec, &list)
	assert.Equal(t, 0, list.Count)

	rec = doJSON(t, router, http.MethodPost, "/api/flags/flag-1/resolve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	require.NoError(t, st.PutProvider(context.Background(), sampleProvider("PRV-1")))
	doJSON(t, router, http.MethodPost, "/api/validate/PRV-1", nil)

	rec := doJSON(t, router, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var s struct {
		TotalProviders int     `json:"total_providers"`
		Validated      int     `json:"validated"`
		AvgConfidence  float64 `json:"average_confidence"`
	}
	decodeBody(t, rec, &s)
	assert.Equal(t, 1, s.TotalProviders)
	assert.Equal(t, 1, s.Validated)
	assert.Equal(t, 93.0, s.AvgConfidence)
}

func TestReportEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	router := srv.Router()

	require.NoError(t, st.PutProvider(context.Background(), sampleProvider("PRV-1")))
	doJSON(t, router, http.MethodPost, "/api/validate/PRV-1", nil)

	rec := doJSON(t, router, http.MethodGet, "/api/report", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "validation_report_")
	assert.NotZero(t, rec.Body.Len())
}
