package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danifc123/CorretoraJennisson/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message too long (maximum 2000 characters)")
	ErrMissingRecipient = errors.New("administrator must specify the destination client id")
	ErrSelfMessage      = errors.New("administrator cannot message itself")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("message not found")
)

const maxMessageLength = 2000

// AdminsGroup is the broadcast address shared by every connected
// administrator. Client connections instead join the group named by their
// own id, see UserGroup.
const AdminsGroup = "admins"

func UserGroup(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

type messageStore interface {
	Create(ctx context.Context, userID int64, adminID *int64, content string, senderType models.SenderType) (*models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	ListAll(ctx context.Context) ([]models.Message, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Message, error)
	ListUnread(ctx context.Context) ([]models.Message, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) (bool, error)
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
}

// MessageService owns the routing rules of the two-party chat: which client
// conversation a message belongs to and which group hears about it. Every
// operation takes the caller's identity explicitly; nothing is read from
// transport state.
type MessageService struct {
	store messageStore
}

func NewMessageService(store messageStore) *MessageService {
	return &MessageService{store: store}
}

// Delivery is the outcome of a successful send: the persisted message and
// the group the ReceiveMessage push goes to. The sender's own ack is not
// part of the audience.
type Delivery struct {
	Message *models.Message
	Group   string
}

// ReadReceipt is the outcome of a successful mark-as-read: the group whose
// client should hear that its message was seen.
type ReadReceipt struct {
	MessageID int64
	Group     string
}

// Send validates and persists a message. Administrators must name the
// destination client and may not target themselves; clients always write
// into their own conversation, whatever recipientID they pass.
func (s *MessageService) Send(
	ctx context.Context,
	actorID int64,
	role string,
	content string,
	recipientID *int64,
) (*Delivery, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(trimmed) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	isAdmin := role == models.RoleAdmin
	if isAdmin {
		if recipientID == nil {
			return nil, ErrMissingRecipient
		}
		if *recipientID == actorID {
			return nil, ErrSelfMessage
		}
	}

	conversationOwner := actorID
	senderType := models.SenderUser
	var adminID *int64
	if isAdmin {
		conversationOwner = *recipientID
		senderType = models.SenderAdmin
		adminID = &actorID
	}

	message, err := s.store.Create(ctx, conversationOwner, adminID, trimmed, senderType)
	if err != nil {
		return nil, err
	}

	group := AdminsGroup
	if isAdmin {
		group = UserGroup(conversationOwner)
	}

	return &Delivery{Message: message, Group: group}, nil
}

// MarkRead flips lida on a client-authored message. Only administrators may
// call it; repeating the call on an already-read message still succeeds.
func (s *MessageService) MarkRead(
	ctx context.Context,
	actorID int64,
	role string,
	messageID int64,
) (*ReadReceipt, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	message, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updated, err := s.store.MarkRead(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotFound
	}

	return &ReadReceipt{
		MessageID: messageID,
		Group:     UserGroup(message.UserID),
	}, nil
}

// ListMessages applies the visibility rule: administrators see every
// conversation, clients only their own.
func (s *MessageService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.Message, error) {
	if role == models.RoleAdmin {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByUserID(ctx, actorID)
}

func (s *MessageService) GetMessage(
	ctx context.Context,
	actorID int64,
	role string,
	messageID int64,
) (*models.Message, error) {
	message, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if role != models.RoleAdmin && message.UserID != actorID {
		return nil, ErrForbidden
	}

	return message, nil
}

func (s *MessageService) CountUnread(ctx context.Context, role string) (int, error) {
	if role != models.RoleAdmin {
		return 0, ErrForbidden
	}
	return s.store.CountUnread(ctx)
}

func (s *MessageService) ListUnreadMessages(ctx context.Context, role string) ([]models.Message, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.store.ListUnread(ctx)
}

func (s *MessageService) ListConversationSummaries(ctx context.Context, role string) ([]models.ConversationSummary, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.store.ListConversations(ctx)
}
