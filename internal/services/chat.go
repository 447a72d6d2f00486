package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"folio-backend/internal/models"
	"folio-backend/internal/repository"
)

// focusTTL marks a conversation as "admin is looking at this" for the
// widget's typing-aware UI. Refreshed each time the admin fetches the
// thread.
const focusTTL = 30 * time.Second

type ChatService struct {
	chatRepo *repository.ChatRepo
	presence *PresenceService
	pubsub   *redis.Client
}

func NewChatService(chatRepo *repository.ChatRepo, presence *PresenceService, pubsubClient *redis.Client) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		presence: presence,
		pubsub:   pubsubClient,
	}
}

// VisitorThread returns the visitor's conversation and its full message
// history, creating the conversation on first contact. Admin messages
// are marked read because the visitor has now seen them.
func (s *ChatService) VisitorThread(ctx context.Context, visitorID uuid.UUID, visitorName string) (*models.Conversation, []*models.ChatMessageRecord, error) {
	conv, err := s.chatRepo.GetOrCreateConversation(ctx, visitorID, visitorName)
	if err != nil {
		return nil, nil, err
	}

	s.presence.Touch(ctx, visitorID)

	messages, err := s.chatRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.chatRepo.MarkMessagesRead(ctx, conv.ID, models.SenderAdmin); err != nil {
		log.Printf("Failed to mark admin messages read for conversation %s: %v", conv.ID, err)
	}

	return conv, messages, nil
}

// SendVisitorMessage appends a visitor message and notifies any
// connected admin dashboards.
func (s *ChatService) SendVisitorMessage(ctx context.Context, visitorID uuid.UUID, visitorName, content string) (*models.ChatMessageRecord, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}
	if len(content) > 4000 {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message must be under 4000 characters"}}
	}

	conv, err := s.chatRepo.GetOrCreateConversation(ctx, visitorID, visitorName)
	if err != nil {
		return nil, err
	}

	s.presence.Touch(ctx, visitorID)

	record, err := s.chatRepo.AppendMessage(ctx, conv.ID, models.SenderVisitor, content)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, conversationChannel(conv.ID), record)
	s.publish(ctx, AdminChannel, record)
	return record, nil
}

// ListConversations returns all conversations for the admin inbox,
// annotated with live presence and focus state.
func (s *ChatService) ListConversations(ctx context.Context) ([]*models.ConversationSummary, error) {
	summaries, err := s.chatRepo.ListConversations(ctx)
	if err != nil {
		return nil, err
	}

	visitorIDs := make([]uuid.UUID, len(summaries))
	for i, c := range summaries {
		visitorIDs[i] = c.VisitorID
	}
	online := s.presence.Online(ctx, visitorIDs)

	for _, c := range summaries {
		c.Online = online[c.VisitorID]
		c.Focused = s.isFocused(ctx, c.ID)
	}
	return summaries, nil
}

// AdminThread returns a conversation's messages for the admin view.
// Visitor messages become read, and the conversation is marked focused
// so the widget can show that someone is looking.
func (s *ChatService) AdminThread(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, []*models.ChatMessageRecord, error) {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, &NotFoundError{Message: "Conversation not found"}
		}
		return nil, nil, err
	}

	messages, err := s.chatRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.chatRepo.MarkMessagesRead(ctx, conv.ID, models.SenderVisitor); err != nil {
		log.Printf("Failed to mark visitor messages read for conversation %s: %v", conv.ID, err)
	}
	s.pubsub.Set(ctx, "chat:focus:"+conv.ID.String(), "1", focusTTL)

	return conv, messages, nil
}

// SendAdminMessage appends an admin reply and pushes it to the
// visitor's channel.
func (s *ChatService) SendAdminMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.ChatMessageRecord, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Conversation not found"}
		}
		return nil, err
	}

	record, err := s.chatRepo.AppendMessage(ctx, conv.ID, models.SenderAdmin, content)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, conversationChannel(conv.ID), record)
	s.publish(ctx, AdminChannel, record)
	return record, nil
}

func (s *ChatService) isFocused(ctx context.Context, conversationID uuid.UUID) bool {
	n, err := s.pubsub.Exists(ctx, "chat:focus:"+conversationID.String()).Result()
	return err == nil && n > 0
}

func (s *ChatService) publish(ctx context.Context, channel string, record *models.ChatMessageRecord) {
	msg := models.WSMessage{Type: "new_message", Payload: record}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.pubsub.Publish(ctx, channel, string(data)).Err(); err != nil {
		log.Printf("Failed to publish chat message to %s: %v", channel, err)
	}
}

// AdminChannel carries every chat message for connected dashboards.
const AdminChannel = "chat:admin"

func conversationChannel(conversationID uuid.UUID) string {
	return "chat:conversation:" + conversationID.String()
}
