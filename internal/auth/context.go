package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/internal/types"
)

const userKey = "auth.user"

// SetUser stores the authenticated user on the request context
func SetUser(c *gin.Context, user *types.User) {
	c.Set(userKey, user)
}

// CurrentUser returns the user set by the auth middleware
func CurrentUser(c *gin.Context) (*types.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*types.User)
	return user, ok && user != nil
}

// UserID returns the authenticated user's id, or 0
func UserID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
