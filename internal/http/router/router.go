package router

import (
	"github.com/gin-gonic/gin"

	"metachat.app/studio/internal/http/handler"
	"metachat.app/studio/internal/hub"
	"metachat.app/studio/internal/service"
)

type RouterConfig struct {
	DashboardURL string
}

func SetupRoutes(router *gin.Engine, chat service.ChatService, h *hub.Hub, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	wsHandler := handler.NewWSHandler(h, cfg.DashboardURL)
	router.GET("/ws", wsHandler.Serve)

	chatHandler := handler.NewChatHandler(chat)
	api := router.Group("/api")
	{
		api.GET("/messages", chatHandler.List)
		api.POST("/messages", chatHandler.Create)
		api.DELETE("/messages", chatHandler.Clear)
		api.GET("/summary", chatHandler.Summary)
	}
}
