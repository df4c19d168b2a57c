// Package handler exposes the calls API over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"salesclutch/internal/calls/repository"
	"salesclutch/internal/calls/service"
	"salesclutch/internal/calls/transport"
	"salesclutch/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Upload)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/recording-url", h.RecordingURL)
}

// Upload accepts a multipart form: "file" plus "instruction_set_id" and an
// optional "deal_id".
func (h *Handler) Upload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file", nil)
		return
	}

	instructionSetID := c.PostForm("instruction_set_id")
	if instructionSetID == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing instruction_set_id", nil)
		return
	}

	var dealID *uuid.UUID
	if raw := c.PostForm("deal_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid deal_id", nil)
			return
		}
		dealID = &parsed
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer file.Close()

	actorID := identity.UserID()
	call, err := h.svc.Upload(c.Request.Context(), service.UploadParams{
		WorkspaceID:      workspaceID,
		DealID:           dealID,
		Filename:         fileHeader.Filename,
		Size:             fileHeader.Size,
		Content:          file,
		InstructionSetID: instructionSetID,
		CreatedBy:        &actorID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToCallResponse(call))
}

func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	params := repository.ListParams{WorkspaceID: workspaceID}
	if raw := c.Query("deal_id"); raw != "" {
		dealID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid deal_id", nil)
			return
		}
		params.DealID = &dealID
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			params.Offset = offset
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}

	calls, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListCallsResponse{Calls: make([]transport.CallResponse, 0, len(calls))}
	for _, call := range calls {
		resp.Calls = append(resp.Calls, transport.ToCallResponse(call))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	call, err := h.svc.GetByID(c.Request.Context(), id, workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToCallResponse(call))
}

func (h *Handler) RecordingURL(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	url, err := h.svc.RecordingURL(c.Request.Context(), id, workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, url)
}
