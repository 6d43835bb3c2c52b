package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/realtime"
)

const messageHistoryLimit = 100

// ChatUseCase чаты по заказам
type ChatUseCase struct {
	chats       repo.ChatRepository
	orders      repo.OrderRepository
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

func NewChatUseCase(chats repo.ChatRepository, orders repo.OrderRepository, broadcaster realtime.Broadcaster, logger *zap.Logger) *ChatUseCase {
	return &ChatUseCase{
		chats:       chats,
		orders:      orders,
		broadcaster: broadcaster,
		logger:      logger.Named("ChatUseCase"),
	}
}

// CreateChat создает чат. Для заказа существует не более одного чата,
// создать или открыть его могут только покупатель, назначенный курьер и администратор.
func (u *ChatUseCase) CreateChat(ctx context.Context, creatorID uint, creatorRole string, req entity.CreateChatRequest) (*entity.Chat, error) {
	chat := &entity.Chat{OrderID: req.OrderID}
	seen := map[uint]bool{}
	add := func(userID uint, role entity.ParticipantRole) {
		if userID == 0 || seen[userID] {
			return
		}
		seen[userID] = true
		chat.Participants = append(chat.Participants, entity.ChatParticipant{UserID: userID, Role: role})
	}

	add(creatorID, participantRole(creatorRole))

	if req.OrderID != nil {
		order, err := u.orders.GetByID(ctx, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if creatorRole != auth.RoleAdmin && !orderMember(order, creatorID) {
			return nil, errors.NewForbiddenError("пользователь не связан с заказом")
		}

		existing, err := u.chats.GetByOrderID(ctx, *req.OrderID)
		if err == nil {
			if creatorRole != auth.RoleAdmin && !existing.HasParticipant(creatorID) {
				return nil, errors.NewForbiddenError("пользователь не участник чата")
			}
			return existing, nil
		}
		if !errors.Is(err, repo.ErrChatNotFound) {
			return nil, err
		}

		if order.UserID != nil {
			add(*order.UserID, entity.ParticipantClient)
		}
		if order.CourierID != nil {
			add(*order.CourierID, entity.ParticipantCourier)
		}
	}

	for _, p := range req.Participants {
		add(p.UserID, p.Role)
	}

	if err := u.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("ошибка при создании чата: %w", err)
	}

	u.logger.Info("чат создан", zap.Uint("chat_id", chat.ID), zap.Int("participants", len(chat.Participants)))
	return chat, nil
}

func orderMember(order *entity.Order, userID uint) bool {
	return (order.UserID != nil && *order.UserID == userID) || order.OwnedByCourier(userID)
}

func (u *ChatUseCase) ListChats(ctx context.Context, userID uint) ([]entity.Chat, error) {
	chats, err := u.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении чатов: %w", err)
	}
	if chats == nil {
		chats = []entity.Chat{}
	}
	return chats, nil
}

func (u *ChatUseCase) ListMessages(ctx context.Context, chatID, userID uint, role string) ([]entity.ChatMessage, error) {
	if err := u.checkAccess(ctx, chatID, userID, role); err != nil {
		return nil, err
	}

	messages, err := u.chats.ListMessages(ctx, chatID, messageHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений: %w", err)
	}
	if messages == nil {
		messages = []entity.ChatMessage{}
	}
	return messages, nil
}

// SendMessage сохраняет сообщение и рассылает его в комнату чата и администраторам
func (u *ChatUseCase) SendMessage(ctx context.Context, chatID, senderID uint, role, text string) (*entity.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewValidationError("text", "сообщение не может быть пустым")
	}
	if err := u.checkAccess(ctx, chatID, senderID, role); err != nil {
		return nil, err
	}

	msg := &entity.ChatMessage{ChatID: chatID, SenderID: senderID, Text: text}
	if err := u.chats.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("ошибка при сохранении сообщения: %w", err)
	}

	u.broadcaster.Publish(realtime.ChatRoom(chatID), entity.EventReceiveMessage, msg)
	u.broadcaster.Publish(realtime.AdminRoom, entity.EventNewChatMessage, entity.NewChatMessage{ChatID: chatID, Message: *msg})
	return msg, nil
}

// MarkRead отмечает прочитанными чужие сообщения и сообщает об этом в комнату чата
func (u *ChatUseCase) MarkRead(ctx context.Context, chatID, readerID uint, role string) (int64, error) {
	if err := u.checkAccess(ctx, chatID, readerID, role); err != nil {
		return 0, err
	}

	count, err := u.chats.MarkRead(ctx, chatID, readerID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при отметке сообщений: %w", err)
	}

	u.broadcaster.Publish(realtime.ChatRoom(chatID), entity.EventReadMessages, entity.ReadMessages{
		ChatID:   chatID,
		ReaderID: readerID,
		Count:    count,
	})
	return count, nil
}

func (u *ChatUseCase) checkAccess(ctx context.Context, chatID, userID uint, role string) error {
	if _, err := u.chats.GetByID(ctx, chatID); err != nil {
		return err
	}
	if role == auth.RoleAdmin {
		return nil
	}

	member, err := u.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("ошибка проверки участника чата: %w", err)
	}
	if !member {
		return errors.NewForbiddenError("пользователь не участвует в чате")
	}
	return nil
}

func participantRole(role string) entity.ParticipantRole {
	switch role {
	case auth.RoleCourier:
		return entity.ParticipantCourier
	case auth.RoleAdmin:
		return entity.ParticipantAdmin
	default:
		return entity.ParticipantClient
	}
}

// RoomAccess проверяет подписку на комнаты хаба: admin_notifications только для администраторов,
// комната чата для его участников и администраторов
type RoomAccess struct {
	chats  repo.ChatRepository
	logger *zap.Logger
}

func NewRoomAccess(chats repo.ChatRepository, logger *zap.Logger) *RoomAccess {
	return &RoomAccess{chats: chats, logger: logger.Named("RoomAccess")}
}

func (g *RoomAccess) CanJoin(ctx context.Context, userID uint, role, room string) bool {
	if userID == 0 {
		return false
	}
	if room == realtime.AdminRoom {
		return role == auth.RoleAdmin
	}

	chatID, ok := realtime.ParseChatRoom(room)
	if !ok {
		return false
	}
	if role == auth.RoleAdmin {
		return true
	}

	member, err := g.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		g.logger.Warn("ошибка проверки участника чата", zap.Uint("chat_id", chatID), zap.Error(err))
		return false
	}
	return member
}
