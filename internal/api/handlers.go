package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *Service
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// Render handles POST /api/render.
//
//	@Summary		Normalize markup through the document codec
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Markup to normalize"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Markup == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("markup is required"))
		return
	}
	res, err := h.svc.Render(req.Markup, req.Highlight)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("markup could not be parsed"))
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{
		Markup:      res.Markup,
		Highlighted: res.Highlighted,
		Tree:        &res.Tree,
		NodeCount:   res.NodeCount,
	})
}

// Metadata handles POST /api/metadata.
//
//	@Summary		Resolve page metadata for a link card
//	@Tags			metadata
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MetadataRequest	true	"URL to resolve"
//	@Success		200		{object}	MetadataResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/metadata [post]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}
	meta, err := h.svc.Metadata(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidAttrs) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid url"))
			return
		}
		slog.Error("metadata failed", slog.String("url", req.URL), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Generate handles POST /api/ai_generate.
//
//	@Summary		Generate a markup fragment from a prompt
//	@Tags			assist
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateRequest	true	"Generation request"
//	@Success		200		{object}	GenerateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai_generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.svc.AssistEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("generation backend not configured"))
		return
	}
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Preset == "" && req.Instruction == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("preset or instruction is required"))
		return
	}
	content, err := h.svc.Generate(r.Context(), req.Preset, req.Instruction, req.Context)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusBadRequest, errorBody("unknown preset"))
		case errors.Is(err, apperr.ErrUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("generation backend unavailable"))
		default:
			slog.Error("generate failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Content: content})
}

// Schema handles GET /api/schema.
//
//	@Summary		List the registered node and mark types
//	@Tags			schema
//	@Produce		json
//	@Success		200	{object}	SchemaResponse
//	@Security		BearerAuth
//	@Router			/schema [get]
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	info := h.svc.Schema()
	writeJSON(w, http.StatusOK, SchemaResponse{Nodes: info.Nodes, Marks: info.Marks})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List editable documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.sessions.List()
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if docs == nil {
		docs = []string{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs})
}

// GetDocument handles GET /api/documents/{name}.
//
//	@Summary		Get a document's serialized content
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := h.sessions.Open(name)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidAttrs) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid document name"))
			return
		}
		slog.Error("open document failed", slog.String("document", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Name: name, Content: c.Content()})
}

// UpdateDocument handles PUT /api/documents/{name}.
//
//	@Summary		Replace a document's content
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Document name"
//	@Param			body	body		DocumentUpdateRequest	true	"New content"
//	@Success		200		{object}	DocumentUpdateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	name := chi.URLParam(r, "name")
	var req DocumentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	c, err := h.sessions.Open(name)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidAttrs) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid document name"))
			return
		}
		slog.Error("open document failed", slog.String("document", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	changed, err := c.SetContent(req.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content could not be parsed"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentUpdateResponse{Name: name, Changed: changed, Content: c.Content()})
}
