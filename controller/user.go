package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/config"
	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/middleware"
)

// UserController handles account HTTP requests
type UserController struct {
	userLogic *logic.UserLogic
}

func NewUserController(userLogic *logic.UserLogic) *UserController {
	return &UserController{userLogic: userLogic}
}

// Signup handles POST /api/signup
func (c *UserController) Signup(ctx *gin.Context) {
	type Request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := c.userLogic.Signup(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, logic.ErrUsernameTaken) {
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !c.setSessionCookie(ctx, user.ID.String(), user.Username) {
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

// Login handles POST /api/login
func (c *UserController) Login(ctx *gin.Context) {
	type Request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := c.userLogic.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, logic.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !c.setSessionCookie(ctx, user.ID.String(), user.Username) {
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// Logout handles POST /api/logout
func (c *UserController) Logout(ctx *gin.Context) {
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GetUser handles GET /api/user
func (c *UserController) GetUser(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.GetString(middleware.CtxUserID))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	user, err := c.userLogic.GetUser(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (c *UserController) setSessionCookie(ctx *gin.Context, userID, username string) bool {
	ttl := time.Duration(config.GlobalConfig.Auth.ExpHour) * time.Hour
	token, err := middleware.GenerateToken(userID, username, config.GlobalConfig.Auth.Secret, ttl)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return false
	}
	ctx.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", false, true)
	return true
}
