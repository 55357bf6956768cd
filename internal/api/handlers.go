package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/ingest"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/report"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	filter := store.ProviderFilter{
		State:  r.URL.Query().Get("state"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	providers, err := s.store.ListProviders(r.Context(), filter)
	if err != nil {
		zap.L().Error("list providers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": providers,
		"count":     len(providers),
	})
}

func (s *Server) handlePutProvider(w http.ResponseWriter, r *http.Request) {
	var p model.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}
	if p.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}

	if err := s.store.PutProvider(r.Context(), p); err != nil {
		zap.L().Error("put provider failed", zap.String("provider_id", p.ProviderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store provider")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")

	p, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		zap.L().Error("get provider failed", zap.String("provider_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load provider")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")

	res, err := s.store.LatestResult(r.Context(), id)
	if err != nil {
		zap.L().Error("latest result failed", zap.String("provider_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no validation result for provider")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleValidate runs a synchronous validation of one stored provider and
// persists the outcome.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")

	p, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		zap.L().Error("get provider failed", zap.String("provider_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load provider")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}

	result := s.orch.Validate(r.Context(), *p)

	if err := s.store.PutResult(r.Context(), result); err != nil {
		zap.L().Error("store result failed", zap.String("provider_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store result")
		return
	}
	if len(result.Flags) > 0 {
		if err := s.store.PutFlags(r.Context(), result.Flags); err != nil {
			zap.L().Error("store flags failed", zap.String("provider_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store flags")
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUpload ingests a roster file, stores its providers, and kicks off a
// background validation job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("upload-%d%s", time.Now().UnixNano(), filepath.Ext(header.Filename)))
	out, err := os.Create(tmp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to buffer upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(tmp)
		writeError(w, http.StatusInternalServerError, "failed to buffer upload")
		return
	}
	out.Close()
	defer os.Remove(tmp)

	parsed, err := ingest.File(tmp)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(parsed.Providers) == 0 {
		writeError(w, http.StatusBadRequest, "no valid providers in file")
		return
	}

	for _, p := range parsed.Providers {
		if err := s.store.PutProvider(r.Context(), p); err != nil {
			zap.L().Error("store provider failed", zap.String("provider_id", p.ProviderID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store providers")
			return
		}
	}

	job, err := s.store.CreateJob(r.Context(), header.Filename, len(parsed.Providers))
	if err != nil {
		zap.L().Error("create job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	s.jobs.Start(job.ID, parsed.Providers)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":          job.ID,
		"total_providers": len(parsed.Providers),
		"skipped_rows":    parsed.Skipped,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		zap.L().Error("get job failed", zap.String("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	filter := store.ResultFilter{
		ProviderID: r.URL.Query().Get("provider_id"),
		Status:     model.Status(r.URL.Query().Get("status")),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}

	results, err := s.store.ListResults(r.Context(), filter)
	if err != nil {
		zap.L().Error("list results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	filter := store.FlagFilter{
		ProviderID: r.URL.Query().Get("provider_id"),
		Type:       model.FlagType(r.URL.Query().Get("type")),
		Unresolved: r.URL.Query().Get("unresolved") == "true",
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}

	flags, err := s.store.ListFlags(r.Context(), filter)
	if err != nil {
		zap.L().Error("list flags failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list flags")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"flags": flags,
		"count": len(flags),
	})
}

func (s *Server) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "flagID")

	if err := s.store.ResolveFlag(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "flag not found or already resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListResults(r.Context(), store.ResultFilter{Limit: 10000})
	if err != nil {
		zap.L().Error("list results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(results))
}

// handleReport streams an XLSX validation report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListResults(r.Context(), store.ResultFilter{Limit: 10000})
	if err != nil {
		zap.L().Error("list results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("report-%d.xlsx", time.Now().UnixNano()))
	if err := report.WriteExcel(tmp, results); err != nil {
		zap.L().Error("write report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	defer os.Remove(tmp)

	filename := fmt.Sprintf("validation_report_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, tmp)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
