package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

// MaxSpreadsheetSizeMB: лимит на загружаемую таблицу тарифов.
const MaxSpreadsheetSizeMB = 5

// xlsx: это zip-архив; старые клиенты присылают его как octet-stream.
var spreadsheetMimeTypes = []string{"application/zip", "application/octet-stream"}

// ValidateSpreadsheet проверяет расширение, размер и сигнатуру загруженного xlsx.
func ValidateSpreadsheet(fileHeader *multipart.FileHeader, file io.ReadSeeker) error {
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".xlsx" {
		return fmt.Errorf("请上传Excel文件（.xlsx）")
	}

	maxSizeBytes := int64(MaxSpreadsheetSizeMB) * 1024 * 1024
	if fileHeader.Size > maxSizeBytes {
		return fmt.Errorf("文件大小超过%dMB限制", MaxSpreadsheetSizeMB)
	}

	// Первые 512 байт для определения типа
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("读取文件失败")
	}

	// Курсор обратно в начало
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("读取文件失败")
	}

	if !slices.Contains(spreadsheetMimeTypes, http.DetectContentType(buffer[:n])) {
		return fmt.Errorf("请上传Excel文件（.xlsx）")
	}
	return nil
}
