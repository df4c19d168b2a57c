// Package handler exposes the workspace API over HTTP.
package handler

import (
	"net/http"

	"salesclutch/internal/workspace/service"
	"salesclutch/internal/workspace/transport"
	"salesclutch/platform/httpkit"
	"salesclutch/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// RegisterRoutes mounts the member-level workspace routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.GET("/members", h.ListMembers)
	rg.POST("/invites/accept", h.AcceptInvite)
}

// RegisterListRoute mounts the cross-workspace listing route.
func (h *Handler) RegisterListRoute(rg *gin.RouterGroup) {
	rg.GET("", h.ListMine)
}

// RegisterOwnerRoutes mounts routes restricted to workspace owners.
func (h *Handler) RegisterOwnerRoutes(rg *gin.RouterGroup) {
	rg.PUT("", h.Rename)
	rg.PUT("/members/:userID", h.UpdateMemberRole)
	rg.DELETE("/members/:userID", h.RemoveMember)
	rg.POST("/invites", h.CreateInvite)
	rg.GET("/invites", h.ListInvites)
	rg.GET("/invites/:id/qr", h.InviteQR)
	rg.DELETE("/invites/:id", h.RevokeInvite)
}

func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	workspaces, err := h.svc.ListMine(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListWorkspacesResponse{Workspaces: make([]transport.WorkspaceResponse, 0, len(workspaces))}
	for i := range workspaces {
		resp.Workspaces = append(resp.Workspaces, transport.ToWorkspaceResponse(&workspaces[i]))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateMemberRole(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.UpdateMemberRole(c.Request.Context(), workspaceID, userID, req.Role)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.RemoveMember(c.Request.Context(), workspaceID, userID)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	ws, err := h.svc.Get(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToWorkspaceResponse(ws))
}

func (h *Handler) Rename(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	var req transport.RenameWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ws, err := h.svc.Rename(c.Request.Context(), workspaceID, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToWorkspaceResponse(ws))
}

func (h *Handler) ListMembers(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	members, err := h.svc.ListMembers(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListMembersResponse{Members: make([]transport.MemberResponse, 0, len(members))}
	for _, member := range members {
		resp.Members = append(resp.Members, transport.ToMemberResponse(member))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) CreateInvite(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	var req transport.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	created, err := h.svc.CreateInvite(c.Request.Context(), workspaceID, identity.UserID(), req.Email, req.Role)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToCreatedInviteResponse(created))
}

func (h *Handler) ListInvites(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	workspaceID, ok := httpkit.MustGetWorkspaceID(c, identity)
	if !ok {
		return
	}

	invites, err := h.svc.ListInvites(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListInvitesResponse{Invites: make([]transport.InviteResponse, 0, len(invites))}
	for i := range invites {
		resp.Invites = append(resp.Invites, transport.ToInviteResponse(&invites[i]))
	}
	httpkit.OK(c, resp)
}

// InviteQR renders the invite as a QR code PNG. The raw token from invite
// creation is required as a query parameter; the server only stores hashes.
func (h *Handler) InviteQR(c *gin.Context) {
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
	rawToken := c.Query("token")
	if rawToken == "" {
		httpkit.Error(c, http.StatusBadRequest, "token query parameter is required", nil)
		return
	}

	png, err := h.svc.InviteQR(c.Request.Context(), id, workspaceID, rawToken)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) RevokeInvite(c *gin.Context) {
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

	if httpkit.HandleError(c, h.svc.RevokeInvite(c.Request.Context(), id, workspaceID)) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) AcceptInvite(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	var req transport.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ws, err := h.svc.AcceptInvite(c.Request.Context(), identity.UserID(), req.Token)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToWorkspaceResponse(ws))
}
