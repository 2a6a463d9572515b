package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// subscribe gắn client thẳng vào hub, không qua Register để test không
// cần kết nối WebSocket thật (Register khởi động write pump trên conn).
func subscribe(h *Hub, taskID string, buffer int) *Client {
	client := &Client{
		Conn:   &websocket.Conn{},
		TaskID: taskID,
		Send:   make(chan []byte, buffer),
	}
	h.mu.Lock()
	if h.clients[taskID] == nil {
		h.clients[taskID] = make(map[*websocket.Conn]*Client)
	}
	h.clients[taskID][client.Conn] = client
	h.mu.Unlock()
	return client
}

func TestNotifyStatusDeliversToSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	taskID := uuid.New()
	other := uuid.New()

	watcher := subscribe(h, taskID.String(), 4)
	bystander := subscribe(h, other.String(), 4)

	h.NotifyStatus(taskID, "ai_processing")

	select {
	case data := <-watcher.Send:
		var update TaskStatusUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			t.Fatalf("payload không phải JSON: %v", err)
		}
		if update.Type != "task_status" || update.TaskID != taskID.String() || update.Status != "ai_processing" {
			t.Errorf("payload không khớp: %+v", update)
		}
	default:
		t.Fatal("client theo dõi task phải nhận được update")
	}

	select {
	case <-bystander.Send:
		t.Fatal("client theo dõi task khác không được nhận update")
	default:
	}
}

func TestNotifyStatusSkipsSlowClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	taskID := uuid.New()

	// buffer 1: tin thứ hai phải bị bỏ, NotifyStatus không được chặn
	slow := subscribe(h, taskID.String(), 1)
	h.NotifyStatus(taskID, "ai_processing")
	h.NotifyStatus(taskID, "generating_cards")

	if got := len(slow.Send); got != 1 {
		t.Fatalf("client chậm phải chỉ giữ 1 tin, got %d", got)
	}
}

func TestUnregisterRemovesClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	taskID := uuid.New().String()

	client := subscribe(h, taskID, 1)
	if got := h.SubscriberCount(taskID); got != 1 {
		t.Fatalf("SubscriberCount = %d, muốn 1", got)
	}

	h.Unregister(client)
	if got := h.SubscriberCount(taskID); got != 0 {
		t.Fatalf("SubscriberCount sau Unregister = %d, muốn 0", got)
	}
	if _, open := <-client.Send; open {
		t.Error("Unregister phải đóng kênh Send")
	}
}
