package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/danifc123/CorretoraJennisson/internal/models"
	"github.com/danifc123/CorretoraJennisson/internal/services"
	chatws "github.com/danifc123/CorretoraJennisson/internal/websocket"
)

type stubMessageService struct {
	listResult      []models.Message
	listErr         error
	getResult       *models.Message
	getErr          error
	sendResult      *services.Delivery
	sendErr         error
	markErr         error
	countResult     int
	countErr        error
	unreadResult    []models.Message
	summariesResult []models.ConversationSummary
	summariesErr    error
	lastActorID     int64
	lastRole        string
	lastContent     string
	lastRecipientID *int64
	lastMessageID   int64
}

func (s *stubMessageService) Send(_ context.Context, actorID int64, role string, content string, recipientID *int64) (*services.Delivery, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastContent = content
	s.lastRecipientID = recipientID
	return s.sendResult, s.sendErr
}

func (s *stubMessageService) MarkRead(_ context.Context, actorID int64, role string, messageID int64) (*services.ReadReceipt, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastMessageID = messageID
	if s.markErr != nil {
		return nil, s.markErr
	}
	return &services.ReadReceipt{MessageID: messageID, Group: "user_42"}, nil
}

func (s *stubMessageService) ListMessages(_ context.Context, actorID int64, role string) ([]models.Message, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.listResult, s.listErr
}

func (s *stubMessageService) GetMessage(_ context.Context, actorID int64, role string, messageID int64) (*models.Message, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastMessageID = messageID
	return s.getResult, s.getErr
}

func (s *stubMessageService) CountUnread(_ context.Context, role string) (int, error) {
	s.lastRole = role
	return s.countResult, s.countErr
}

func (s *stubMessageService) ListUnreadMessages(_ context.Context, role string) ([]models.Message, error) {
	s.lastRole = role
	return s.unreadResult, s.listErr
}

func (s *stubMessageService) ListConversationSummaries(_ context.Context, role string) ([]models.ConversationSummary, error) {
	s.lastRole = role
	return s.summariesResult, s.summariesErr
}

func newTestApp(handler *MessageHandler, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Get("/api/v1/mensagens", handler.GetAll)
	app.Post("/api/v1/mensagens", handler.Create)
	app.Get("/api/v1/mensagens/nao-lidas", handler.GetUnreadCount)
	app.Get("/api/v1/mensagens/conversas", handler.GetConversations)
	app.Get("/api/v1/mensagens/:id", handler.GetByID)
	app.Put("/api/v1/mensagens/:id/ler", handler.MarkAsRead)
	return app
}

func TestGetAllForwardsActorIdentity(t *testing.T) {
	service := &stubMessageService{
		listResult: []models.Message{
			{ID: 3, UserID: 42, Content: "oi", SenderType: models.SenderUser, CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "42", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mensagens", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastRole != models.RoleUser {
		t.Fatalf("unexpected actor context: %d %q", service.lastActorID, service.lastRole)
	}

	var body []models.Message
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body) != 1 || body[0].UserID != 42 {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestCreateForwardsRecipientAndReturnsMessage(t *testing.T) {
	adminID := int64(1)
	service := &stubMessageService{
		sendResult: &services.Delivery{
			Message: &models.Message{ID: 9, UserID: 42, AdminID: &adminID, Content: "ola", SenderType: models.SenderAdmin},
			Group:   "user_42",
		},
	}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "1", models.RoleAdmin)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/mensagens",
		strings.NewReader(`{"conteudo":"ola","usuario_id_destino":42}`),
	)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastRecipientID == nil || *service.lastRecipientID != 42 {
		t.Fatalf("expected recipient 42 forwarded, got %v", service.lastRecipientID)
	}
	if service.lastContent != "ola" {
		t.Fatalf("expected content forwarded, got %q", service.lastContent)
	}

	var body models.Message
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.ID != 9 || body.UserID != 42 {
		t.Fatalf("unexpected response body: %+v", body)
	}
}

func TestCreateValidationFailureReturnsReason(t *testing.T) {
	service := &stubMessageService{sendErr: services.ErrMissingRecipient}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "1", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mensagens", strings.NewReader(`{"conteudo":"ola"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != services.ErrMissingRecipient.Error() {
		t.Fatalf("expected the specific rejection reason, got %q", body.Error)
	}
}

func TestMarkAsReadForbiddenForClients(t *testing.T) {
	service := &stubMessageService{markErr: services.ErrForbidden}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "42", models.RoleUser)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/mensagens/7/ler", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestMarkAsReadNotFound(t *testing.T) {
	service := &stubMessageService{markErr: services.ErrNotFound}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "1", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/mensagens/999/ler", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastMessageID != 999 {
		t.Fatalf("expected message id 999 forwarded, got %d", service.lastMessageID)
	}
}

func TestGetUnreadCountReturnsBareNumber(t *testing.T) {
	service := &stubMessageService{countResult: 5}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "1", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mensagens/nao-lidas", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}
}

func TestGetByIDForbiddenForOtherClients(t *testing.T) {
	service := &stubMessageService{getErr: services.ErrForbidden}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "43", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mensagens/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetConversationsReturnsSummaries(t *testing.T) {
	email := "cliente@example.com"
	service := &stubMessageService{
		summariesResult: []models.ConversationSummary{
			{
				UserID:      42,
				UserEmail:   &email,
				UnreadCount: 2,
				LastMessage: &models.Message{ID: 5, UserID: 42, Content: "oi", SenderType: models.SenderUser},
			},
		},
	}
	handler := NewMessageHandler(service, chatws.NewHub(), "secret")
	app := newTestApp(handler, "1", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mensagens/conversas", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body []models.ConversationSummary
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body) != 1 || body[0].UnreadCount != 2 || body[0].LastMessage == nil {
		t.Fatalf("unexpected response: %+v", body)
	}
}
