package entity

import "time"

// ParticipantRole роль участника чата
type ParticipantRole string

const (
	ParticipantClient    ParticipantRole = "client"
	ParticipantCourier   ParticipantRole = "courier"
	ParticipantWarehouse ParticipantRole = "warehouse"
	ParticipantAdmin     ParticipantRole = "admin"
)

type Chat struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	OrderID      *uint             `json:"orderId" gorm:"index"`
	Participants []ChatParticipant `json:"participants" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type ChatParticipant struct {
	ID     uint            `json:"-" gorm:"primaryKey"`
	ChatID uint            `json:"chatId" gorm:"not null;uniqueIndex:idx_chat_user"`
	UserID uint            `json:"userId" gorm:"not null;uniqueIndex:idx_chat_user;index"`
	Role   ParticipantRole `json:"role" gorm:"type:varchar(16);not null"`
}

func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ChatID    uint      `json:"chatId" gorm:"not null;index"`
	SenderID  uint      `json:"senderId" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
	IsRead    bool      `json:"isRead" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

type ParticipantRequest struct {
	UserID uint            `json:"userId" binding:"required"`
	Role   ParticipantRole `json:"role" binding:"required,oneof=client courier warehouse admin"`
}

type CreateChatRequest struct {
	OrderID      *uint                `json:"orderId"`
	Participants []ParticipantRequest `json:"participants" binding:"dive"`
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}
