package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/postforge-backend/internal/http/response"
	"github.com/yungbote/postforge-backend/internal/platform/apierr"
	"github.com/yungbote/postforge-backend/internal/services"
)

type ContentHandler struct {
	svc services.ContentService
}

func NewContentHandler(svc services.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// POST /api/documents
func (h *ContentHandler) IngestDocument(c *gin.Context) {
	var req services.IngestDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	out, err := h.svc.IngestDocument(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/documents/:id/extract?from_batch=true
func (h *ContentHandler) ExtractDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fromBatch, _ := strconv.ParseBool(c.DefaultQuery("from_batch", "false"))
	out, err := h.svc.ExtractDocument(c.Request.Context(), id, fromBatch)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"idea_ids": out.IdeaIDs, "skipped": out.Skipped, "ideas": out.Ideas})
}

// GET /api/owners/:owner_id/ideas?limit=N
func (h *ContentHandler) ListIdeas(c *gin.Context) {
	ownerID, ok := pathID(c, "owner_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	ideas, err := h.svc.ListIdeas(c.Request.Context(), ownerID, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ideas": ideas})
}

// GET /api/ideas/:id/drafts
func (h *ContentHandler) ListDrafts(c *gin.Context) {
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	drafts, err := h.svc.ListDrafts(c.Request.Context(), ideaID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"drafts": drafts})
}

// GET /api/drafts/:id
func (h *ContentHandler) GetDraft(c *gin.Context) {
	draftID, ok := pathID(c, "id")
	if !ok {
		return
	}
	draft, err := h.svc.GetDraft(c.Request.Context(), draftID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"draft": draft})
}

// POST /api/ideas/:id/regenerate
func (h *ContentHandler) RegenerateIdea(c *gin.Context) {
	ideaID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.RegenerateIdea(c.Request.Context(), ideaID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	body := gin.H{"result": res}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}
	response.RespondOK(c, body)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondErr(c, fmt.Errorf("invalid %s: %w", name, apierr.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}
