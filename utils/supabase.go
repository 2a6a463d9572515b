package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

// UploadExportToSupabase uploads a generated deck file (.apkg/.csv/.xlsx)
// to Supabase Storage and returns its public URL.
// Path: uploads/exports/<filename>
func UploadExportToSupabase(localPath string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return "", fmt.Errorf("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}

	filename := filepath.Base(localPath)
	objectPath := fmt.Sprintf("exports/%s", filename)
	contentType := exportContentType(filepath.Ext(filename))

	options := storage.FileOptions{
		ContentType: &contentType,
	}
	if _, err := storageClient.UploadFile("uploads", objectPath, bytes.NewBuffer(data), options); err != nil {
		return "", err
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/uploads/%s", supabaseURL, objectPath)
	return publicURL, nil
}

func exportContentType(ext string) string {
	switch ext {
	case ".apkg":
		return "application/octet-stream"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
