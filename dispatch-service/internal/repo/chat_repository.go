package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	pkgerrors "github.com/arturz777/dlyq/pkg/errors"
)

var ErrChatNotFound = fmt.Errorf("чат не найден: %w", pkgerrors.ErrNotFound)

// ChatRepository интерфейс репозитория чатов
type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id uint) (*entity.Chat, error)
	GetByOrderID(ctx context.Context, orderID uint) (*entity.Chat, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	CreateMessage(ctx context.Context, msg *entity.ChatMessage) error
	ListMessages(ctx context.Context, chatID uint, limit int) ([]entity.ChatMessage, error)
	MarkRead(ctx context.Context, chatID, readerID uint) (int64, error)
}

type ChatRepositoryImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &ChatRepositoryImpl{db: db}
}

// Create сохраняет чат вместе с участниками
func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(chat).Error
	})
}

func (r *ChatRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Chat, error) {
	var chat entity.Chat
	result := r.db.WithContext(ctx).Preload("Participants").First(&chat, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}
	return &chat, nil
}

func (r *ChatRepositoryImpl) GetByOrderID(ctx context.Context, orderID uint) (*entity.Chat, error) {
	var chat entity.Chat
	result := r.db.WithContext(ctx).Preload("Participants").Where("order_id = ?", orderID).First(&chat)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, result.Error
	}
	return &chat, nil
}

// ListByUser чаты, в которых пользователь участвует
func (r *ChatRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]entity.Chat, error) {
	var chats []entity.Chat
	result := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", r.db.Model(&entity.ChatParticipant{}).Select("chat_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&chats)
	return chats, result.Error
}

func (r *ChatRepositoryImpl) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (r *ChatRepositoryImpl) CreateMessage(ctx context.Context, msg *entity.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListMessages последние limit сообщений в хронологическом порядке
func (r *ChatRepositoryImpl) ListMessages(ctx context.Context, chatID uint, limit int) ([]entity.ChatMessage, error) {
	var messages []entity.ChatMessage
	result := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id DESC").
		Limit(limit).
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead отмечает прочитанными сообщения других отправителей
func (r *ChatRepositoryImpl) MarkRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, readerID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
