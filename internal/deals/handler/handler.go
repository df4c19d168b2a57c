// Package handler exposes the deals API over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"salesclutch/internal/deals/domain"
	"salesclutch/internal/deals/repository"
	"salesclutch/internal/deals/service"
	"salesclutch/internal/deals/transport"
	"salesclutch/platform/httpkit"
	"salesclutch/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// AnalysisSource resolves a processed call into the analysis result the
// gate flow evaluates. The calls service implements it; the indirection
// keeps this package from importing the calls module.
type AnalysisSource interface {
	AnalysisForCall(ctx context.Context, callID, workspaceID uuid.UUID) (domain.CallAnalysisResult, string, error)
}

type Handler struct {
	svc      *service.Service
	analyses AnalysisSource
	validate *validator.Validator
}

func New(svc *service.Service, analyses AnalysisSource, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, analyses: analyses, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/timeline", h.Timeline)
	rg.POST("/:id/stage", h.ChangeStage)
	rg.POST("/:id/evaluate", h.Evaluate)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	var req transport.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID := identity.UserID()
	deal, err := h.svc.Create(c.Request.Context(), workspaceID, &actorID, service.CreateDealInput{
		Title:        req.Title,
		ValueCents:   req.ValueCents,
		Notes:        req.Notes,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToDealResponse(deal))
}

func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	params := repository.ListParams{
		WorkspaceID: workspaceID,
		Search:      c.Query("search"),
	}
	if raw := c.Query("stage"); raw != "" {
		stage := domain.Stage(raw)
		params.Stage = &stage
	}
	params.Offset = intQuery(c, "offset", 0)
	params.Limit = intQuery(c, "limit", 25)

	deals, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListDealsResponse{
		Deals:  make([]transport.DealResponse, 0, len(deals)),
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}
	for _, deal := range deals {
		resp.Deals = append(resp.Deals, transport.ToDealResponse(deal))
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

	deal, err := h.svc.GetByID(c.Request.Context(), id, workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToDealResponse(deal))
}

func (h *Handler) Update(c *gin.Context) {
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

	var req transport.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	deal, err := h.svc.Update(c.Request.Context(), id, workspaceID, service.UpdateDealInput{
		Title:        req.Title,
		ValueCents:   req.ValueCents,
		Notes:        req.Notes,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToDealResponse(deal))
}

func (h *Handler) Delete(c *gin.Context) {
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

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id, workspaceID)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) Timeline(c *gin.Context) {
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

	timeline, err := h.svc.Timeline(c.Request.Context(), id, workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToTimelineResponse(timeline))
}

func (h *Handler) ChangeStage(c *gin.Context) {
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

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	skipped := make(map[domain.Stage]string, len(req.Skipped))
	for stage, explanation := range req.Skipped {
		skipped[domain.Stage(stage)] = explanation
	}

	actorID := identity.UserID()
	change, err := h.svc.Machine().ApplyManualChange(c.Request.Context(), service.ManualChangeParams{
		DealID:              id,
		WorkspaceID:         workspaceID,
		NewStage:            domain.Stage(req.Stage),
		Justification:       req.Justification,
		Reason:              req.Reason,
		SkippedExplanations: skipped,
		TriggerCallID:       req.CallID,
		ChangedBy:           &actorID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStageChangeResponse(change))
}

func (h *Handler) Evaluate(c *gin.Context) {
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

	var req transport.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	analysis, instructionSetID, err := h.analyses.AnalysisForCall(c.Request.Context(), req.CallID, workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	actorID := identity.UserID()
	params := service.EvaluateParams{
		DealID:           id,
		WorkspaceID:      workspaceID,
		InstructionSetID: instructionSetID,
		Analysis:         analysis,
		TriggerCallID:    &req.CallID,
		ActorID:          &actorID,
	}
	if req.TargetStage != nil {
		target := domain.Stage(*req.TargetStage)
		params.TargetStage = &target
	}

	result, err := h.svc.Machine().EvaluateAndMaybeAdvance(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToEvaluateResponse(result))
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
