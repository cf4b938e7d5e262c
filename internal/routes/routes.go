package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danifc123/CorretoraJennisson/internal/config"
	"github.com/danifc123/CorretoraJennisson/internal/handlers"
	"github.com/danifc123/CorretoraJennisson/internal/middleware"
	"github.com/danifc123/CorretoraJennisson/internal/repository"
	"github.com/danifc123/CorretoraJennisson/internal/services"
	chatws "github.com/danifc123/CorretoraJennisson/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authHandler := handlers.NewAuthHandler(userRepo, adminRepo, cfg.JWTSecret)

	chatHub := chatws.NewHub()
	go chatHub.Run()
	messageService := services.NewMessageService(messageRepo)
	messageHandler := handlers.NewMessageHandler(messageService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/admin/login", authHandler.AdminLogin)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	mensagens := authProtected.Group("/mensagens")
	mensagens.Get("", messageHandler.GetAll)
	mensagens.Post("", messageHandler.Create)
	mensagens.Get("/nao-lidas", messageHandler.GetUnreadCount)
	mensagens.Get("/nao-lidas/lista", messageHandler.GetUnread)
	mensagens.Get("/conversas", messageHandler.GetConversations)
	mensagens.Get("/:id", messageHandler.GetByID)
	mensagens.Put("/:id/ler", messageHandler.MarkAsRead)

	api.Use("/v1/ws", messageHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(messageHandler.HandleWebSocket))
}
