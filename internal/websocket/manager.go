package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/models"
)

// Manager представляет центральный менеджер для всех WebSocket соединений
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[int64]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	log          *logger.Logger
}

// EventType определяет тип события WebSocket
type EventType string

const (
	EventTradeCreated EventType = "trade_created"
	EventTradeDeleted EventType = "trade_deleted"
	EventConnected    EventType = "connected"
	EventPing         EventType = "ping"
	EventPong         EventType = "pong"
)

// Event представляет структуру сообщения для WebSocket
type Event struct {
	Type      EventType       `json:"type"`
	TradeID   int64           `json:"tradeId,omitempty"`
	UserID    int64           `json:"userId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewManager создает новый экземпляр Manager
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("websocket")
	}
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[int64]map[uuid.UUID]bool),
		log:         log,
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	// Связываем клиент с пользователем
	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	m.log.WithField("client_id", client.ID).WithField("user_id", client.UserID).Info("WebSocket клиент подключен")
}

// RemoveClient удаляет клиента; повторный вызов ничего не делает
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.Lock()
	client, exists := m.clients[clientID]
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	if !exists {
		return
	}

	m.userMutex.Lock()
	if clients, ok := m.userClients[client.UserID]; ok {
		delete(clients, clientID)
		// Если это был последний клиент пользователя, удаляем запись пользователя
		if len(clients) == 0 {
			delete(m.userClients, client.UserID)
		}
	}
	m.userMutex.Unlock()

	m.log.WithField("client_id", clientID).WithField("user_id", client.UserID).Info("WebSocket клиент отключен")
}

// ClientCount возвращает число подключенных клиентов
func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Broadcast отправляет событие всем подключенным клиентам
func (m *Manager) Broadcast(event Event) {
	data, ok := m.encode(event)
	if !ok {
		return
	}

	m.clientsMutex.RLock()
	targets := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		targets = append(targets, c)
	}
	m.clientsMutex.RUnlock()

	for _, c := range targets {
		m.deliver(c, data)
	}
}

// SendToUser отправляет сообщение всем соединениям конкретного пользователя
func (m *Manager) SendToUser(userID int64, event Event) {
	m.userMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.userClients[userID]))
	for id := range m.userClients[userID] {
		clientIDs = append(clientIDs, id)
	}
	m.userMutex.RUnlock()

	if len(clientIDs) == 0 {
		return
	}

	data, ok := m.encode(event)
	if !ok {
		return
	}

	for _, id := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[id]
		m.clientsMutex.RUnlock()
		if exists {
			m.deliver(client, data)
		}
	}
}

// TradeCreated рассылает новый обмен всем клиентам
func (m *Manager) TradeCreated(listing models.TradeListing) {
	payload, err := json.Marshal(listing)
	if err != nil {
		m.log.WithError(err).Error("ошибка сериализации обмена")
		return
	}
	m.Broadcast(Event{
		Type:    EventTradeCreated,
		TradeID: listing.ID,
		UserID:  listing.CreatorID,
		Payload: payload,
	})
}

// TradeDeleted рассылает удаление обмена всем клиентам
func (m *Manager) TradeDeleted(tradeID, creatorID int64) {
	m.Broadcast(Event{
		Type:    EventTradeDeleted,
		TradeID: tradeID,
		UserID:  creatorID,
	})
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[int64]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}

func (m *Manager) encode(event Event) ([]byte, bool) {
	// Устанавливаем время события, если не установлено
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		m.log.WithError(err).Error("ошибка сериализации события")
		return nil, false
	}
	return data, true
}

// deliver кладёт сообщение в очередь клиента, не блокируясь.
// Клиент с заполненной очередью отключается.
func (m *Manager) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		m.log.WithField("client_id", c.ID).Warn("очередь клиента заполнена, закрываем соединение")
		c.conn.Close()
		m.RemoveClient(c.ID)
	}
}
