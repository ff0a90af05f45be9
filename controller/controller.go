package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/middleware"
	"github.com/sunrunnn/SageSparke/pkg"
)

// machineFor resolves the conversation state machine for the caller's
// identity (signed-in user or guest session).
func machineFor(ctx *gin.Context, hub *logic.Hub) (*logic.ConversationLogic, bool) {
	userID := ctx.GetString(middleware.CtxUserID)
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return nil, false
	}

	var (
		l   *logic.ConversationLogic
		err error
	)
	if ctx.GetBool(middleware.CtxGuest) {
		l, err = hub.ForGuest(ctx.Request.Context(), userID)
	} else {
		l, err = hub.ForUser(ctx.Request.Context(), userID)
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return l, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrNotFound), errors.Is(err, logic.ErrMessageNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, logic.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, logic.ErrConflict), errors.Is(err, logic.ErrCompletionPending):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		var provErr *pkg.ProviderError
		if errors.As(err, &provErr) {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
