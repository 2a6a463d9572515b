package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// InputType là loại file tài liệu được hỗ trợ
type InputType string

const (
	InputPDF  InputType = "pdf"
	InputDOCX InputType = "docx"
	InputTXT  InputType = "txt"
)

// ExtractText trích xuất text thuần từ file upload theo loại file
func ExtractText(fileHeader *multipart.FileHeader, inputType InputType) (string, error) {
	switch inputType {
	case InputPDF:
		file, err := fileHeader.Open()
		if err != nil {
			return "", err
		}
		defer file.Close()
		return ExtractTextFromPDF(file)
	case InputDOCX:
		return ExtractTextFromDOCX(fileHeader)
	case InputTXT:
		return ExtractTextFromTXT(fileHeader)
	}
	return "", fmt.Errorf("loại file không hỗ trợ: %s", inputType)
}

func ExtractTextFromPDF(file multipart.File) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", fmt.Errorf("lỗi đọc file PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("không thể tạo reader PDF: %w", err)
	}

	var textBuilder bytes.Buffer
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(content)
	}

	return textBuilder.String(), nil
}

func ExtractTextFromDOCX(fileHeader *multipart.FileHeader) (string, error) {
	tmpPath, err := SaveTempFile(fileHeader)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	// .docx là file zip, văn bản nằm trong word/document.xml
	r, err := zip.OpenReader(tmpPath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("không tìm thấy word/document.xml trong file docx")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	// Trích xuất các tag <w:t>
	var buf bytes.Buffer
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "t" { // <w:t>
				var text string
				if err := decoder.DecodeElement(&text, &se); err == nil {
					buf.WriteString(text + " ")
				}
			}
		}
	}

	return strings.TrimSpace(buf.String()), nil
}

func ExtractTextFromTXT(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(file); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// SaveTempFile lưu file upload ra file tạm trên đĩa, trả về đường dẫn.
// Caller chịu trách nhiệm xóa file.
func SaveTempFile(fileHeader *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	tmpFile, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	src, err := fileHeader.Open()
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	defer src.Close()

	if _, err := io.Copy(tmpFile, src); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}
	return tmpFile.Name(), nil
}
