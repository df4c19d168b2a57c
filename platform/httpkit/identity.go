// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// WorkspaceID returns the active workspace ID and whether one is set.
	WorkspaceID() (uuid.UUID, bool)
	// Roles returns the user's workspace roles.
	Roles() []string
	// HasRole checks if the user has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	userID        uuid.UUID
	workspaceID   *uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) WorkspaceID() (uuid.UUID, bool) {
	if i.workspaceID == nil {
		return uuid.Nil, false
	}
	return *i.workspaceID, true
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	var workspaceID *uuid.UUID
	if raw, ok := c.Get(ContextWorkspaceIDKey); ok {
		if wid, ok := raw.(uuid.UUID); ok {
			workspaceID = &wid
		}
	}

	return &identity{
		userID:        uid,
		workspaceID:   workspaceID,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}

// MustGetWorkspaceID extracts the active workspace from a Gin context,
// aborting with 400 when the token carries none.
func MustGetWorkspaceID(c *gin.Context, id Identity) (uuid.UUID, bool) {
	workspaceID, ok := id.WorkspaceID()
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no active workspace"})
		return uuid.Nil, false
	}
	return workspaceID, true
}
