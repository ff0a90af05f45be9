package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/logic"
)

// MessageController handles message HTTP requests
type MessageController struct {
	hub *logic.Hub
}

func NewMessageController(hub *logic.Hub) *MessageController {
	return &MessageController{hub: hub}
}

// GetMessages handles GET /api/conversations/:id/messages
func (c *MessageController) GetMessages(ctx *gin.Context) {
	convoID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	messages, err := machine.Messages(ctx.Request.Context(), convoID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"conversation_id": convoID,
		"messages":        messages,
	})
}

// SendMessage handles POST /api/conversations/:id/messages.
// The path id "new" targets a fresh conversation; the id of an existing
// conversation appends to it.
func (c *MessageController) SendMessage(ctx *gin.Context) {
	type Request struct {
		Text     string `json:"text" binding:"required"`
		ImageURL string `json:"image_url"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convoID := uuid.Nil
	if raw := ctx.Param("id"); raw != "" && raw != "new" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
			return
		}
		convoID = id
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	reply, err := machine.SendMessage(ctx.Request.Context(), req.Text, req.ImageURL, convoID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"conversation_id": machine.ActiveConversationID(),
		"message":         reply,
	})
}

// EditMessage handles PUT /api/conversations/:id/messages/:messageId
func (c *MessageController) EditMessage(ctx *gin.Context) {
	type Request struct {
		Text string `json:"text" binding:"required"`
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
	messageID, err := uuid.Parse(ctx.Param("messageId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	machine, ok := machineFor(ctx, c.hub)
	if !ok {
		return
	}
	reply, err := machine.EditMessage(ctx.Request.Context(), convoID, messageID, req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"conversation_id": convoID,
		"message":         reply,
	})
}
