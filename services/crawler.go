package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	spacesRe      = regexp.MustCompile(`[ \t]{2,}`)
)

// WebCrawler tải một trang web và trả về text thuần đã lọc HTML
type WebCrawler struct {
	client *http.Client
	policy *bluemonday.Policy
}

func NewWebCrawler() *WebCrawler {
	return &WebCrawler{
		client: &http.Client{Timeout: 30 * time.Second},
		policy: bluemonday.StrictPolicy(),
	}
}

// FetchText tải URL, bỏ script/style, strip toàn bộ tag HTML
func (w *WebCrawler) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AnkiGenix/1.0)")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("không tải được trang %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("trang %s trả về status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}

	html := scriptStyleRe.ReplaceAllString(string(body), "")
	// chèn xuống dòng trước khi strip để các block không dính vào nhau
	html = strings.ReplaceAll(html, "<", "\n<")
	text := w.policy.Sanitize(html)

	text = strings.TrimSpace(text)
	text = spacesRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	if text == "" {
		return "", fmt.Errorf("trang %s không có nội dung text", url)
	}
	return text, nil
}
