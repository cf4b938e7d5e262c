package models

import "time"

// SenderType says which side of the conversation authored a message. It is
// serialized as a string on every surface (REST and websocket pushes).
type SenderType string

const (
	SenderUser  SenderType = "usuario"
	SenderAdmin SenderType = "administrador"
)

// Message is the persisted chat unit. UserID always identifies the client
// side of the conversation, even when an administrator is the author; in
// that case AdminID carries the author.
type Message struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"usuario_id"`
	UserEmail  *string    `json:"usuario_email,omitempty"`
	UserName   *string    `json:"usuario_nome,omitempty"`
	AdminID    *int64     `json:"administrador_id,omitempty"`
	AdminName  *string    `json:"administrador_nome,omitempty"`
	Content    string     `json:"conteudo"`
	SenderType SenderType `json:"remetente_tipo"`
	Read       bool       `json:"lida"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ConversationSummary is the admin console's per-client rollup: one row per
// usuario_id with the latest message and the unread counter.
type ConversationSummary struct {
	UserID      int64    `json:"usuario_id"`
	UserEmail   *string  `json:"usuario_email,omitempty"`
	UserName    *string  `json:"usuario_nome,omitempty"`
	LastMessage *Message `json:"ultima_mensagem,omitempty"`
	UnreadCount int      `json:"nao_lidas"`
}
