package authz

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WriteError maps a resolver error onto the HTTP response. Not-found errors
// become 404 so non-members cannot distinguish a workspace they lack access to
// from one that does not exist; role failures become 403; anything else is a
// storage failure and becomes 500.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrWorkspaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
	case errors.Is(err, ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat room not found"})
	case errors.Is(err, ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
	case errors.Is(err, ErrNotRoomMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this chat room"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
	}
}
