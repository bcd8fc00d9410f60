package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicely/internal/callercontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the bearer token and binds the caller to the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.resolver.Resolve(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := callercontext.WithCallerID(c.Request.Context(), identity.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, identity.UserID)
		c.Next()
	}
}
