package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("realtime hub остановлен")

// RoomGuard решает, может ли пользователь войти в комнату
type RoomGuard interface {
	CanJoin(ctx context.Context, userID uint, role, room string) bool
}

// Metrics получает сведения о работе хаба
type Metrics interface {
	ClientsChanged(n int)
	EventDelivered(event string)
	EventDropped(event string)
}

type nopMetrics struct{}

func (nopMetrics) ClientsChanged(int)    {}
func (nopMetrics) EventDelivered(string) {}
func (nopMetrics) EventDropped(string)   {}

type request struct {
	client  *Client
	action  string
	room    string
	allowed bool
}

type roomQuery struct {
	room  string
	reply chan int
}

// Hub держит подключения и комнаты. Состояние принадлежит горутине Run.
type Hub struct {
	logger   *zap.Logger
	guard    RoomGuard
	metrics  Metrics
	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	requests   chan request
	events     chan Event
	queries    chan roomQuery
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	count   atomic.Int64
}

// NewHub создает хаб. guard и metrics могут быть nil.
func NewHub(logger *zap.Logger, guard RoomGuard, metrics Metrics) *Hub {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Hub{
		logger:  logger.Named("RealtimeHub"),
		guard:   guard,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// клиенты подключаются из SPA и мобильного приложения с других origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan request, 64),
		events:     make(chan Event, 256),
		queries:    make(chan roomQuery),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Run обслуживает хаб до отмены ctx. После выхода все клиенты отключены.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = map[*Client]struct{}{}
			h.rooms = map[string]map[*Client]struct{}{}
			h.setCount()
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount()

		case c := <-h.unregister:
			h.remove(c)

		case req := <-h.requests:
			h.handleRequest(req)

		case ev := <-h.events:
			h.fanout(ev)

		case q := <-h.queries:
			q.reply <- len(h.rooms[q.room])
		}
	}
}

// Publish реализует Broadcaster для локальных клиентов
func (h *Hub) Publish(channel, event string, payload any) {
	ev, err := NewEvent(channel, event, payload)
	if err != nil {
		h.logger.Error("Не удалось закодировать событие", zap.String("event", event), zap.Error(err))
		return
	}
	h.Dispatch(ev)
}

// Dispatch ставит событие в очередь рассылки, не блокируя вызывающего
func (h *Hub) Dispatch(ev Event) {
	select {
	case h.events <- ev:
	case <-h.done:
	default:
		h.metrics.EventDropped(ev.Name)
		h.logger.Warn("Очередь событий переполнена, событие отброшено", zap.String("event", ev.Name))
	}
}

// ServeWS переводит запрос в websocket и регистрирует клиента
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint, role string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(h, conn, userID, role)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrHubClosed
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// ClientCount число подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// RoomSize число участников комнаты
func (h *Hub) RoomSize(room string) int {
	reply := make(chan int, 1)
	select {
	case h.queries <- roomQuery{room: room, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) handleRequest(req request) {
	if _, ok := h.clients[req.client]; !ok {
		return
	}

	switch req.action {
	case actionJoin:
		if !req.allowed {
			h.reply(req.client, errorEvent("нет доступа к комнате "+req.room))
			return
		}
		members, ok := h.rooms[req.room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[req.room] = members
		}
		members[req.client] = struct{}{}

	case actionLeave:
		h.leave(req.client, req.room)

	default:
		h.reply(req.client, errorEvent("неизвестное действие "+req.action))
	}
}

func (h *Hub) fanout(ev Event) {
	data, err := encode(ev)
	if err != nil {
		h.logger.Error("Не удалось закодировать событие", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	targets := h.clients
	if ev.Channel != DefaultChannel {
		targets = h.rooms[ev.Channel]
	}

	for c := range targets {
		select {
		case c.send <- data:
			h.metrics.EventDelivered(ev.Name)
		default:
			h.metrics.EventDropped(ev.Name)
		}
	}
}

func (h *Hub) reply(c *Client, ev Event) {
	data, err := encode(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	for room := range h.rooms {
		h.leave(c, room)
	}
	close(c.send)
	h.setCount()
}

func (h *Hub) leave(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	h.metrics.ClientsChanged(len(h.clients))
}

// canJoin вызывается из горутины клиента, чтобы проверка не блокировала хаб
func (h *Hub) canJoin(c *Client, room string) bool {
	if h.guard == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), guardTimeout)
	defer cancel()
	return h.guard.CanJoin(ctx, c.UserID, c.Role, room)
}
