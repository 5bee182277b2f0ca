package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	s3storage "github.com/tendant/simple-form-upload/pkg/formupload/storage/s3"
)

const publicReadACL = "public-read"

// Issuer signs upload forms
type Issuer interface {
	IssueContext(ctx context.Context, cfg formupload.Config) (*formupload.Form, error)
}

// Inspector reads back uploaded objects
type Inspector interface {
	Stat(ctx context.Context, key string) (*s3storage.ObjectInfo, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Handler serves signed upload forms and upload status
type Handler struct {
	issuer    Issuer
	config    formupload.Config
	inspector Inspector
	metrics   *Metrics
	logger    *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithInspector enables GET /uploads/*
func WithInspector(inspector Inspector) HandlerOption {
	return func(h *Handler) {
		h.inspector = inspector
	}
}

// WithMetrics records issuance and lookup metrics
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLogger replaces slog.Default()
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a handler issuing forms for cfg
func NewHandler(issuer Issuer, cfg formupload.Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		issuer: issuer,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for upload endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/upload-form", h.IssueForm)
	r.Get("/uploads/*", h.UploadStatus)
	return r
}

// IssueForm returns a freshly signed form
func (h *Handler) IssueForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.issue(w, r, "upload-form")
	if !ok {
		return
	}
	render.JSON(w, r, form)
}

// ConvResponse is the form layout served at /conv
type ConvResponse struct {
	Action             string            `json:"action"`
	Method             string            `json:"method"`
	Enctype            string            `json:"enctype"`
	ContentLengthMaxMB float64           `json:"contentLengthMaxMB"`
	ContentTypeStart   string            `json:"contentTypeStart"`
	Params             map[string]string `json:"params"`
}

// Conv serves the form in the layout older upload widgets expect
func (h *Handler) Conv(w http.ResponseWriter, r *http.Request) {
	form, ok := h.issue(w, r, "conv")
	if !ok {
		return
	}
	render.JSON(w, r, ConvResponse{
		Action:             form.Action,
		Method:             form.Method,
		Enctype:            form.Enctype,
		ContentLengthMaxMB: float64(form.ContentLengthMaxBytes) / (1024 * 1024),
		ContentTypeStart:   form.ContentTypePrefix,
		Params:             form.Fields.Map(),
	})
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, endpoint string) (*formupload.Form, bool) {
	start := time.Now()
	form, err := h.issuer.IssueContext(r.Context(), h.config)
	if err != nil {
		status, code := classify(err)
		h.metrics.observeIssue(endpoint, start, code)
		h.logger.Error("Failed to issue upload form", "bucket", h.config.BucketName, "err", err)
		writeError(w, r, status, code, "upload form could not be issued")
		return nil, false
	}
	h.metrics.observeIssue(endpoint, start, "")

	h.logger.Info("Upload form issued",
		"bucket", h.config.BucketName,
		"key", form.Fields.Key,
		"credential", form.Fields.Credential,
		"expiration", form.Expiration,
	)
	w.Header().Set("Cache-Control", "no-store")
	return form, true
}

// UploadStatus reports whether an object was uploaded under the key
func (h *Handler) UploadStatus(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		writeError(w, r, http.StatusNotImplemented, "tracking_disabled", "upload tracking is not enabled")
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "missing_object_key", "object key is required in URL path")
		return
	}
	if h.config.KeyPrefix != "" && !strings.HasPrefix(key, h.config.KeyPrefix) {
		writeError(w, r, http.StatusNotFound, "upload_not_found", "no upload under this key")
		return
	}

	info, err := h.inspector.Stat(r.Context(), key)
	if err != nil {
		status, code := classify(err)
		h.metrics.observeLookup(code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to stat upload", "key", key, "err", err)
		}
		writeError(w, r, status, code, err.Error())
		return
	}

	// Objects uploaded under any other ACL stay unreadable through this endpoint
	if h.config.ACL == publicReadACL {
		url, err := h.inspector.DownloadURL(r.Context(), key)
		if err != nil {
			h.logger.Warn("Failed to build download URL", "key", key, "err", err)
		} else {
			info.DownloadURL = url
		}
	}

	h.metrics.observeLookup("found")
	render.JSON(w, r, info)
}
