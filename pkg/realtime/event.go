package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Каналы доставки событий
const (
	// DefaultChannel получают все подключенные клиенты
	DefaultChannel = ""
	// AdminRoom комната уведомлений администраторов
	AdminRoom = "admin_notifications"

	chatRoomPrefix = "chat_"
)

// Broadcaster публикует событие в канал. Доставка best-effort, ошибки не возвращаются.
type Broadcaster interface {
	Publish(channel, event string, payload any)
}

// Dispatcher доставляет уже закодированное событие локальным клиентам
type Dispatcher interface {
	Dispatch(ev Event)
}

// Event формат сообщения, который получает клиент и который ходит через брокер
type Event struct {
	Channel string          `json:"channel,omitempty"`
	Name    string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewEvent кодирует payload в событие
func NewEvent(channel, name string, payload any) (Event, error) {
	ev := Event{Channel: channel, Name: name}
	if payload == nil {
		return ev, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("кодирование события %s: %w", name, err)
	}
	ev.Data = data
	return ev, nil
}

// ChatRoom возвращает имя комнаты чата
func ChatRoom(chatID uint) string {
	return chatRoomPrefix + strconv.FormatUint(uint64(chatID), 10)
}

// ParseChatRoom извлекает ID чата из имени комнаты
func ParseChatRoom(room string) (uint, bool) {
	raw, ok := strings.CutPrefix(room, chatRoomPrefix)
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
