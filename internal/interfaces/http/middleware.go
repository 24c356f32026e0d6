package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

const (
	// HeaderUserID carries the authenticated user's id
	HeaderUserID = "X-User-ID"

	// HeaderRequestID is echoed back on every response
	HeaderRequestID = "X-Request-ID"

	requestIDKey = "request_id"
	actorKey     = "actor"
)

// requestIDMiddleware keeps a caller-supplied request id or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// actorMiddleware resolves the X-User-ID header to an actor. Requests with a
// missing, malformed or unknown id are rejected with 401.
func actorMiddleware(users port.UserRepository, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			abortUnauthenticated(c, "missing "+HeaderUserID+" header")
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			abortUnauthenticated(c, "invalid "+HeaderUserID+" header")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			logger.Error("Failed to resolve actor", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "internal error",
			})
			return
		}
		if user == nil {
			abortUnauthenticated(c, "unknown user")
			return
		}

		c.Set(actorKey, entity.ActorFromUser(user))
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   msg,
	})
}

// actorFrom returns the actor stored by actorMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
