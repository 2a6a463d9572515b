package services

import "context"

// MediaRef là handle trả về sau khi upload file lên AI provider,
// dùng lại được trong các lần chat sau mà không cần upload lại.
type MediaRef struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

// AIService là contract hẹp mà workflow cần từ AI provider.
// Mọi lời gọi là một round trip đồng bộ; không retry, không deadline riêng.
type AIService interface {
	// Chat gửi prompt text, trả về nội dung completion
	Chat(ctx context.Context, prompt string) (string, error)

	// UploadFiles upload các file local, trả về media ref theo thứ tự input.
	// Bất kỳ file nào lỗi thì cả batch coi như thất bại.
	UploadFiles(ctx context.Context, paths []string) ([]MediaRef, error)

	// ChatWithMedia gửi prompt kèm media đã upload trước đó.
	// conversationID tùy provider, có thể bỏ trống.
	ChatWithMedia(ctx context.Context, prompt string, media []MediaRef, conversationID string) (string, error)
}
