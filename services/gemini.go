package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiService gọi Gemini API, implement AIService.
// Client tạo một lần ở composition root rồi inject cho workflow.
type GeminiService struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiService(ctx context.Context, logger *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		return nil, fmt.Errorf("không thể tạo Gemini client: %w", err)
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiService{
		client: client,
		model:  model,
		logger: logger.Named("ai.gemini"),
	}, nil
}

func (s *GeminiService) Close() error {
	return s.client.Close()
}

func (s *GeminiService) Chat(ctx context.Context, prompt string) (string, error) {
	s.logger.Debug("gọi Gemini", zap.Int("prompt_len", len(prompt)))

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("lỗi Gemini xử lý: %w", err)
	}
	return firstCandidateText(resp)
}

func (s *GeminiService) UploadFiles(ctx context.Context, paths []string) ([]MediaRef, error) {
	refs := make([]MediaRef, 0, len(paths))
	for _, path := range paths {
		ref, err := s.uploadFile(ctx, path)
		if err != nil {
			// một file lỗi là cả batch thất bại
			return nil, fmt.Errorf("upload file %s thất bại: %w", filepath.Base(path), err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *GeminiService) uploadFile(ctx context.Context, path string) (MediaRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return MediaRef{}, err
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	file, err := s.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: filepath.Base(path),
		MIMEType:    mimeType,
	})
	if err != nil {
		return MediaRef{}, err
	}

	// chờ Gemini xử lý xong file
	for file.State == genai.FileStateProcessing {
		time.Sleep(2 * time.Second)
		file, err = s.client.GetFile(ctx, file.Name)
		if err != nil {
			return MediaRef{}, err
		}
	}
	if file.State != genai.FileStateActive {
		return MediaRef{}, fmt.Errorf("file %s ở trạng thái %v", file.Name, file.State)
	}

	s.logger.Info("đã upload file lên Gemini",
		zap.String("file", filepath.Base(path)),
		zap.String("uri", file.URI))

	return MediaRef{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}, nil
}

func (s *GeminiService) ChatWithMedia(ctx context.Context, prompt string, media []MediaRef, conversationID string) (string, error) {
	s.logger.Debug("gọi Gemini kèm media",
		zap.Int("prompt_len", len(prompt)),
		zap.Int("media", len(media)),
		zap.String("conversation_id", conversationID))

	parts := make([]genai.Part, 0, len(media)+1)
	for _, m := range media {
		parts = append(parts, genai.FileData{MIMEType: m.MIMEType, URI: m.URI})
	}
	parts = append(parts, genai.Text(prompt))

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("lỗi Gemini xử lý: %w", err)
	}
	return firstCandidateText(resp)
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini không trả kết quả hợp lệ")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
