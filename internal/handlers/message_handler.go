package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/danifc123/CorretoraJennisson/internal/models"
	"github.com/danifc123/CorretoraJennisson/internal/services"
	chatws "github.com/danifc123/CorretoraJennisson/internal/websocket"
	"github.com/danifc123/CorretoraJennisson/pkg/utils"
)

type messageApplicationService interface {
	Send(ctx context.Context, actorID int64, role string, content string, recipientID *int64) (*services.Delivery, error)
	MarkRead(ctx context.Context, actorID int64, role string, messageID int64) (*services.ReadReceipt, error)
	ListMessages(ctx context.Context, actorID int64, role string) ([]models.Message, error)
	GetMessage(ctx context.Context, actorID int64, role string, messageID int64) (*models.Message, error)
	CountUnread(ctx context.Context, role string) (int, error)
	ListUnreadMessages(ctx context.Context, role string) ([]models.Message, error)
	ListConversationSummaries(ctx context.Context, role string) ([]models.ConversationSummary, error)
}

type MessageHandler struct {
	service   messageApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

type createMessageRequest struct {
	Content     string `json:"conteudo"`
	RecipientID *int64 `json:"usuario_id_destino"`
}

func NewMessageHandler(service messageApplicationService, hub *chatws.Hub, jwtSecret string) *MessageHandler {
	return &MessageHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// GetAll returns every message for administrators and only the caller's
// own conversation for clients.
func (h *MessageHandler) GetAll(c *fiber.Ctx) error {
	actorID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	messages, err := h.service.ListMessages(c.Context(), actorID, role)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(messages)
}

func (h *MessageHandler) GetByID(c *fiber.Ctx) error {
	actorID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	messageID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || messageID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	message, err := h.service.GetMessage(c.Context(), actorID, role, messageID)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(message)
}

func (h *MessageHandler) GetUnreadCount(c *fiber.Ctx) error {
	_, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	count, err := h.service.CountUnread(c.Context(), role)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(count)
}

func (h *MessageHandler) GetUnread(c *fiber.Ctx) error {
	_, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	messages, err := h.service.ListUnreadMessages(c.Context(), role)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(messages)
}

func (h *MessageHandler) GetConversations(c *fiber.Ctx) error {
	_, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summaries, err := h.service.ListConversationSummaries(c.Context(), role)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(summaries)
}

// Create persists a message through the same validation sequence as the
// websocket path. REST callers poll for updates, so no push is issued here.
func (h *MessageHandler) Create(c *fiber.Ctx) error {
	actorID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	delivery, err := h.service.Send(c.Context(), actorID, role, req.Content, req.RecipientID)
	if err != nil {
		return mapMessageError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(delivery.Message)
}

func (h *MessageHandler) MarkAsRead(c *fiber.Ctx) error {
	actorID, role, err := actorFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	messageID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || messageID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	if _, err := h.service.MarkRead(c.Context(), actorID, role, messageID); err != nil {
		return mapMessageError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Message marked as read"})
}

// WebSocketAuth authenticates the upgrade request. Connections without a
// resolvable identity never reach the hub.
func (h *MessageHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *MessageHandler) HandleWebSocket(conn *websocket.Conn) {
	rawID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := chatws.NewClient(h.hub, conn, userID, role)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *MessageHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func actorFromContext(c *fiber.Ctx) (int64, string, error) {
	rawID, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, "", errors.New("missing user id")
	}
	actorID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, "", err
	}

	role, ok := c.Locals("role").(string)
	if !ok || role == "" {
		return 0, "", errors.New("missing role")
	}

	return actorID, role, nil
}

func mapMessageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrMissingRecipient),
		errors.Is(err, services.ErrSelfMessage):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process message request"})
	}
}
