package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TaskStatusUpdate là payload gửi cho client mỗi khi task đổi trạng thái
type TaskStatusUpdate struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Client đại diện cho một kết nối WebSocket đang theo dõi một task
type Client struct {
	Conn   *websocket.Conn
	TaskID string
	Send   chan []byte
}

// Hub quản lý các client theo task ID
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*Client),
		logger:  logger.Named("ws_hub"),
	}
}

// Register đăng ký client theo dõi task và khởi động write pump
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.clients[client.TaskID] == nil {
		h.clients[client.TaskID] = make(map[*websocket.Conn]*Client)
	}
	h.clients[client.TaskID][client.Conn] = client
	h.mu.Unlock()

	h.logger.Debug("client đăng ký theo dõi task", zap.String("task_id", client.TaskID))

	go h.writePump(client)
}

// Unregister gỡ client khỏi hub và đóng kênh gửi
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[client.TaskID]; ok {
		if _, ok := conns[client.Conn]; ok {
			delete(conns, client.Conn)
			close(client.Send)
			if len(conns) == 0 {
				delete(h.clients, client.TaskID)
			}
		}
	}
	h.mu.Unlock()
}

// NotifyStatus phát trạng thái mới tới mọi client đang theo dõi task.
// Thỏa interface StatusNotifier của workflow: không chặn, không trả lỗi.
func (h *Hub) NotifyStatus(taskID uuid.UUID, status string) {
	update := TaskStatusUpdate{
		Type:      "task_status",
		TaskID:    taskID.String(),
		Status:    status,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("không thể marshal status update", zap.Error(err))
		return
	}
	h.broadcast(taskID.String(), data)
}

func (h *Hub) broadcast(taskID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[taskID] {
		select {
		case client.Send <- data:
		default:
			// client chậm, bỏ qua để không chặn workflow
			h.logger.Warn("bỏ qua client chậm", zap.String("task_id", taskID))
		}
	}
}

// SubscriberCount trả về số client đang theo dõi một task
func (h *Hub) SubscriberCount(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[taskID])
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
