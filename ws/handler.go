package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleTaskStatus xử lý GET /ws/tasks/:id - stream trạng thái task qua WebSocket
func (h *Hub) HandleTaskStatus(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task ID không hợp lệ"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("không thể upgrade kết nối WebSocket", zap.Error(err))
		return
	}

	client := &Client{
		Conn:   conn,
		TaskID: taskID.String(),
		Send:   make(chan []byte, 16),
	}
	h.Register(client)

	// read pump: chỉ để phát hiện client đóng kết nối
	go func() {
		defer h.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
