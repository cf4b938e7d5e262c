package repository

import (
	"context"

	"github.com/danifc123/CorretoraJennisson/internal/models"
	"github.com/jackc/pgx/v5"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// messageColumns is the enriched projection shared by every read path so
// REST results and websocket payloads carry the same shape.
const messageColumns = `
	m.id,
	m.usuario_id,
	u.email,
	u.nome,
	m.administrador_id,
	a.nome,
	m.conteudo,
	m.remetente_tipo,
	m.lida,
	m.created_at
`

const messageFrom = `
	FROM mensagens m
	JOIN usuarios u ON u.id = m.usuario_id
	LEFT JOIN administradores a ON a.id = m.administrador_id
`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	if err := row.Scan(
		&message.ID,
		&message.UserID,
		&message.UserEmail,
		&message.UserName,
		&message.AdminID,
		&message.AdminName,
		&message.Content,
		&message.SenderType,
		&message.Read,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) Create(
	ctx context.Context,
	userID int64,
	adminID *int64,
	content string,
	senderType models.SenderType,
) (*models.Message, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO mensagens (usuario_id, administrador_id, conteudo, remetente_tipo, lida)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id
	`, userID, adminID, content, senderType).Scan(&id)
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `WHERE m.id = $1`
	return scanMessage(r.db.QueryRow(ctx, query, id))
}

func (r *MessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `ORDER BY m.created_at ASC, m.id ASC`
	return r.list(ctx, query)
}

func (r *MessageRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.usuario_id = $1
		ORDER BY m.created_at ASC, m.id ASC`
	return r.list(ctx, query, userID)
}

func (r *MessageRepository) ListUnread(ctx context.Context) ([]models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.remetente_tipo = 'usuario' AND m.lida = FALSE
		ORDER BY m.created_at ASC, m.id ASC`
	return r.list(ctx, query)
}

func (r *MessageRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM mensagens
		WHERE remetente_tipo = 'usuario' AND lida = FALSE
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flips lida unconditionally so a repeated call on an already-read
// message still reports the row as existing.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE mensagens
		SET lida = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MessageRepository) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			u.id,
			u.email,
			u.nome,
			lm.id,
			lm.usuario_id,
			lm.administrador_id,
			lm.administrador_nome,
			lm.conteudo,
			lm.remetente_tipo,
			lm.lida,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM usuarios u
		JOIN LATERAL (
			SELECT m.id, m.usuario_id, m.administrador_id, a.nome AS administrador_nome,
			       m.conteudo, m.remetente_tipo, m.lida, m.created_at
			FROM mensagens m
			LEFT JOIN administradores a ON a.id = m.administrador_id
			WHERE m.usuario_id = u.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM mensagens
			WHERE usuario_id = u.id
			  AND remetente_tipo = 'usuario'
			  AND lida = FALSE
		) uc ON TRUE
		ORDER BY lm.created_at DESC, lm.id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var last models.Message

		if err := rows.Scan(
			&summary.UserID,
			&summary.UserEmail,
			&summary.UserName,
			&last.ID,
			&last.UserID,
			&last.AdminID,
			&last.AdminName,
			&last.Content,
			&last.SenderType,
			&last.Read,
			&last.CreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		last.UserEmail = summary.UserEmail
		last.UserName = summary.UserName
		summary.LastMessage = &last

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
