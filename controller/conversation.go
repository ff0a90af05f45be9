package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/logic"
)

// ConversationController handles conversation-list HTTP requests
type ConversationController struct {
	hub *logic.Hub
}

func NewConversationController(hub *logic.Hub) *ConversationController {
	return &ConversationController{hub: hub}
}

// GetConversations handles GET /api/conversations
func (c *ConversationController) GetConversations(ctx *gin.Context) {
	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"conversations": machine.Conversations(),
		"active_id":     machine.ActiveConversationID(),
	})
}

// CreateConversation handles POST /api/conversations
func (c *ConversationController) CreateConversation(ctx *gin.Context) {
	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}

	convo, err := machine.CreateConversation(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, convo)
}

// UpdateConversation handles PUT /api/conversations/:id
func (c *ConversationController) UpdateConversation(ctx *gin.Context) {
	type Request struct {
		Title string `json:"title" binding:"required"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convoID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	if err := machine.RenameConversation(ctx.Request.Context(), convoID, req.Title); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": convoID, "title": req.Title})
}

// DeleteConversation handles DELETE /api/conversations/:id
func (c *ConversationController) DeleteConversation(ctx *gin.Context) {
	convoID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	if err := machine.DeleteConversation(ctx.Request.Context(), convoID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// SelectConversation handles POST /api/conversations/:id/select
func (c *ConversationController) SelectConversation(ctx *gin.Context) {
	convoID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	if err := machine.SelectConversation(convoID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"active_id": convoID})
}
