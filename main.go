package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sunrunnn/SageSparke/config"
	"github.com/sunrunnn/SageSparke/controller"
	"github.com/sunrunnn/SageSparke/dao"
	"github.com/sunrunnn/SageSparke/logger"
	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/middleware"
	"github.com/sunrunnn/SageSparke/models"
	"github.com/sunrunnn/SageSparke/pkg"
)

func main() {
	// Initialize config
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run main.go <config.yaml>")
	}
	configFile := os.Args[1]
	if err := config.LoadConfig(configFile); err != nil {
		log.Fatalf("Failed to load config from %s: %v", configFile, err)
	}

	lg, err := logger.New(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := gorm.Open(postgres.Open(config.GlobalConfig.DSN()), &gorm.Config{})
	if err != nil {
		lg.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		lg.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Initialize Chat client
	chatClient := pkg.NewChatClient(
		config.GlobalConfig.Chat.APIKey,
		config.GlobalConfig.Chat.BaseURL,
		config.GlobalConfig.Chat.Model,
		config.GlobalConfig.Chat.TitleModel,
	)

	// Initialize DAOs
	userDAO := dao.NewUserDAO(db)
	convoDAO := dao.NewConversationDAO(db)

	// Initialize Logics
	userLogic := logic.NewUserLogic(userDAO)
	hub := logic.NewHub(convoDAO, func() logic.ConversationStore {
		return dao.NewMemoryConversationStore()
	}, chatClient)

	// Initialize Controllers
	userCtrl := controller.NewUserController(userLogic)
	convoCtrl := controller.NewConversationController(hub)
	messageCtrl := controller.NewMessageController(hub)

	// Setup Gin router
	r := gin.Default()
	secret := config.GlobalConfig.Auth.Secret

	api := r.Group("/api", middleware.Session(secret))
	api.POST("/signup", userCtrl.Signup)
	api.POST("/login", userCtrl.Login)
	api.POST("/logout", userCtrl.Logout)
	api.GET("/user", middleware.Auth(secret), userCtrl.GetUser)

	api.GET("/conversations", convoCtrl.GetConversations)
	api.POST("/conversations", convoCtrl.CreateConversation)
	api.PUT("/conversations/:id", convoCtrl.UpdateConversation)
	api.DELETE("/conversations/:id", convoCtrl.DeleteConversation)
	api.POST("/conversations/:id/select", convoCtrl.SelectConversation)

	api.GET("/conversations/:id/messages", messageCtrl.GetMessages)
	api.POST("/conversations/:id/messages", messageCtrl.SendMessage)
	api.PUT("/conversations/:id/messages/:messageId", messageCtrl.EditMessage)

	// Run server
	lg.Info().Int("port", config.GlobalConfig.Server.Port).Msg("starting server")
	if err := r.Run(fmt.Sprintf(":%d", config.GlobalConfig.Server.Port)); err != nil {
		lg.Fatal().Err(err).Msg("Failed to run server")
	}
}
