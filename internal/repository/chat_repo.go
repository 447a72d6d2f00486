package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// GetOrCreateConversation returns the conversation owned by a visitor,
// creating it on first contact.
func (r *ChatRepo) GetOrCreateConversation(ctx context.Context, visitorID uuid.UUID, visitorName string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, visitor_id, visitor_name, status, created_at, updated_at
		FROM conversations WHERE visitor_id = $1`, visitorID,
	).Scan(&conv.ID, &conv.VisitorID, &conv.VisitorName, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if visitorName == "" {
		visitorName = "Visitor"
	}
	conv = &models.Conversation{
		ID:          uuid.New(),
		VisitorID:   visitorID,
		VisitorName: visitorName,
		Status:      "open",
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, visitor_id, visitor_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (visitor_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, status, created_at, updated_at`,
		conv.ID, conv.VisitorID, conv.VisitorName,
	).Scan(&conv.ID, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *ChatRepo) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, visitor_id, visitor_name, status, created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.VisitorID, &conv.VisitorName, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns every conversation with its last message and the
// number of visitor messages the admin has not read yet, newest activity
// first. Presence flags are layered on by the service.
func (r *ChatRepo) ListConversations(ctx context.Context) ([]*models.ConversationSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.visitor_id, c.visitor_name, c.status, c.created_at, c.updated_at,
			m.id, m.conversation_id, m.sender, m.content, m.is_read, m.created_at,
			(SELECT COUNT(*) FROM messages u
				WHERE u.conversation_id = c.id AND u.sender = 'visitor' AND NOT u.is_read)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT * FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC LIMIT 1
		) m ON TRUE
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.ConversationSummary
	for rows.Next() {
		s := &models.ConversationSummary{}
		var (
			msgID      *uuid.UUID
			msgConvID  *uuid.UUID
			msgSender  *string
			msgContent *string
			msgRead    *bool
			msgAt      *time.Time
		)
		err := rows.Scan(
			&s.ID, &s.VisitorID, &s.VisitorName, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&msgID, &msgConvID, &msgSender, &msgContent, &msgRead, &msgAt,
			&s.UnreadCount,
		)
		if err != nil {
			return nil, err
		}
		if msgID != nil {
			s.LastMessage = &models.ChatMessageRecord{
				ID:             *msgID,
				ConversationID: *msgConvID,
				Sender:         *msgSender,
				Content:        *msgContent,
				IsRead:         *msgRead,
				CreatedAt:      *msgAt,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListMessages returns the full ordered message list for a conversation.
// The admin chat polls this endpoint and replaces its local view wholesale.
func (r *ChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.ChatMessageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessageRecord
	for rows.Next() {
		m := &models.ChatMessageRecord{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *ChatRepo) AppendMessage(ctx context.Context, conversationID uuid.UUID, sender, content string) (*models.ChatMessageRecord, error) {
	m := &models.ChatMessageRecord{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		m.ID, m.ConversationID, m.Sender, m.Content,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE conversations SET updated_at = NOW() WHERE id = $1", conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkMessagesRead marks every message from the given sender as read; called
// when the other side fetches the conversation.
func (r *ChatRepo) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, sender string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender = $2 AND NOT is_read`,
		conversationID, sender)
	return err
}

func (r *ChatRepo) CountOpenConversations(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM conversations WHERE status = 'open'").Scan(&n)
	return n, err
}
