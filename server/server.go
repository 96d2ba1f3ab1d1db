package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hazyhaar/filingscan/docpipe"
	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/kit"
	"github.com/hazyhaar/filingscan/report"
	"github.com/hazyhaar/filingscan/rules"
)

// Config configures the HTTP surface.
type Config struct {
	// MaxUploadBytes caps a whole multipart batch. Default: 512MB.
	MaxUploadBytes int64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 512 << 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server routes HTTP requests to a Workspace.
type Server struct {
	ws     *Workspace
	cfg    Config
	logger *slog.Logger
	router chi.Router
}

// New builds the router.
func New(ws *Workspace, cfg Config) *Server {
	cfg.defaults()
	s := &Server{ws: ws, cfg: cfg, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.Post("/batches", s.handleBatch)
		r.Get("/session", s.handleSession)
		r.Get("/documents/{name}/evidence", s.handleEvidence)
		r.Get("/compliance", s.handleCompliance)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/exam", s.handleExam)
		r.Get("/intel", s.handleIntel)
		r.Post("/intel/refresh", s.handleIntelRefresh)
		r.Post("/intel/audit-firm-risk", s.handleAuditFirmRisk)
		r.Get("/search", s.handleSearch)
		r.Post("/ask", s.handleAsk)
		r.Post("/clauses/evaluate", s.handleClause)
		r.Post("/report", s.handleReport)
		r.Get("/reports", s.handleReportList)
		r.Get("/reports/{id}", s.handleReportGet)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func newRequestID() string { return uuid.Must(uuid.NewV7()).String() }

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", kit.GetRequestID(r.Context()))
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	caps := s.ws.Capabilities()
	out := make(map[string]any, len(caps))
	for f, ok := range caps {
		out[string(f)] = ok
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"extensions": docpipe.SupportedExtensions(),
		"available":  out,
	})
}

// handleBatch accepts multipart/form-data with one or more "files" parts.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	var files []docpipe.File
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "open "+fh.Filename+": "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "read "+fh.Filename+": "+err.Error())
			return
		}
		files = append(files, docpipe.File{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files submitted; use the \"files\" form field")
		return
	}

	sess := s.ws.Process(r.Context(), files)
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.ws.Session()
	if sess == nil {
		writeError(w, http.StatusConflict, "no batch has been processed")
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.ws.Evidence(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such document in the current batch")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCompliance(w http.ResponseWriter, _ *http.Request) {
	findings, err := s.ws.Compliance()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"findings":   findings,
		"unresolved": rules.Unresolved(findings),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	a, err := s.ws.Analytics()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleExam(w http.ResponseWriter, _ *http.Request) {
	a, err := s.ws.Exam()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleIntel(w http.ResponseWriter, _ *http.Request) {
	items := s.ws.Intelligence()
	if items == nil {
		writeError(w, http.StatusConflict, "intelligence has not been refreshed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleIntelRefresh(w http.ResponseWriter, r *http.Request) {
	items, err := s.ws.RefreshIntelligence(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAuditFirmRisk(w http.ResponseWriter, r *http.Request) {
	var req intel.FirmHistory
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AuditFirm == "" {
		writeError(w, http.StatusBadRequest, "audit_firm is required")
		return
	}
	writeJSON(w, http.StatusOK, req.Assess())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits := s.ws.Search(q, limit)
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "hits": nonNilHits(hits)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	writeJSON(w, http.StatusOK, s.ws.Ask(req.Question))
}

func (s *Server) handleClause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    rules.ClauseType  `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	res, err := rules.EvaluateClause(req.Type, req.Payload)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.ws.Report(r.Context())
	if err != nil {
		s.logger.Error("report export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.DefaultFileName+`"`)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	arc := s.ws.Archive()
	if arc == nil {
		writeError(w, http.StatusNotFound, "report archive is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := arc.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": entries})
}

func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	arc := s.ws.Archive()
	if arc == nil {
		writeError(w, http.StatusNotFound, "report archive is not configured")
		return
	}
	rep, err := arc.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, report.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, rules.ErrNotReady) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
