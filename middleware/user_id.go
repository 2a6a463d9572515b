package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// ExtractUserID đọc header X-User-ID (nếu có) và gắn vào context.
// Backend không tự quản lý auth; định danh người dùng do gateway phía trước cấp.
func ExtractUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set(userIDKey, id)
			}
		}
		c.Next()
	}
}

// UserIDFrom lấy user ID đã gắn bởi ExtractUserID; trả uuid.Nil nếu không có
func UserIDFrom(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
