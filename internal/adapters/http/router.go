package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finsight/invoice-pipeline/internal/config"
	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
	"github.com/finsight/invoice-pipeline/internal/core/usecase"
	"github.com/finsight/invoice-pipeline/internal/infrastructure/export"
	"github.com/finsight/invoice-pipeline/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg      config.Config
	creator  ports.JobCreator
	jobs     ports.JobReader
	results  ports.ResultReader
	chat     ports.ResultAnswerer
	synonyms *usecase.SynonymService
	exporter *export.Service
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	creator ports.JobCreator,
	jobs ports.JobReader,
	results ports.ResultReader,
	chat ports.ResultAnswerer,
	synonyms *usecase.SynonymService,
	exporter *export.Service,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		creator:  creator,
		jobs:     jobs,
		results:  results,
		chat:     chat,
		synonyms: synonyms,
		exporter: exporter,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/jobs", rt.jobsCollection)
	mux.HandleFunc("/v1/jobs/", rt.jobSubresource)
	mux.HandleFunc("/v1/synonyms", rt.synonymsCollection)
	mux.HandleFunc("/v1/synonyms/", rt.synonymByID)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) jobsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createJob(w, r)
	case http.MethodGet:
		rt.listJobs(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// createJob accepts a multipart form with one or more "files" parts and
// an optional "invoice_type" field, registers the job and returns 202
// immediately; processing happens on the worker.
func (rt *Router) createJob(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(rt.cfg.APIMaxUploadMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	invoiceType := domain.InvoiceType(strings.TrimSpace(r.FormValue("invoice_type")))
	if invoiceType == "" {
		invoiceType = domain.InvoiceRegular
	}

	var uploads []ports.JobUpload
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("open upload %s", header.Filename)})
			return
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("read upload %s", header.Filename)})
			return
		}
		uploads = append(uploads, ports.JobUpload{
			Filename:  header.Filename,
			SizeBytes: header.Size,
			Data:      data,
		})
	}

	job, err := rt.creator.CreateJob(r.Context(), uploads, invoiceType)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordJobCreated(serviceName, string(invoiceType))
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (rt *Router) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := rt.jobs.ListRecent(r.Context(), rt.cfg.APIJobHistoryLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (rt *Router) jobSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	jobID, sub, _ := strings.Cut(rest, "/")
	if jobID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	switch sub {
	case "":
		rt.getJob(w, r, jobID)
	case "results":
		rt.getResults(w, r, jobID)
	case "export":
		rt.exportResults(w, r, jobID)
	case "chat":
		rt.chatOverResults(w, r, jobID)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	job, err := rt.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) getResults(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if _, err := rt.jobs.GetByID(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}
	results, err := rt.results.ListByJob(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	data, err := rt.exporter.ExportJobXLSX(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "extraction_"+jobID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) chatOverResults(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	answer, err := rt.chat.Answer(r.Context(), jobID, req.Question)
	if rt.metrics != nil {
		rt.metrics.RecordChatRequest(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (rt *Router) synonymsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		synonyms, err := rt.synonyms.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if synonyms == nil {
			synonyms = []domain.Synonym{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"synonyms": synonyms})
	case http.MethodPost:
		var req struct {
			Term      string `json:"term"`
			Canonical string `json:"canonical"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		synonym, err := rt.synonyms.Upsert(r.Context(), req.Term, req.Canonical)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, synonym)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) synonymByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/synonyms/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "synonym id is required"})
		return
	}
	if err := rt.synonyms.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
