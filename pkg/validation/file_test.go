package validation

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSpreadsheet(t *testing.T) {
	zipped := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 60)...)

	t.Run("xlsx", func(t *testing.T) {
		r := bytes.NewReader(zipped)
		require.NoError(t, ValidateSpreadsheet(&multipart.FileHeader{Filename: "价格.XLSX", Size: int64(len(zipped))}, r))

		// курсор вернулся в начало
		head := make([]byte, 2)
		_, err := io.ReadFull(r, head)
		require.NoError(t, err)
		assert.Equal(t, "PK", string(head))
	})

	t.Run("wrong extension", func(t *testing.T) {
		err := ValidateSpreadsheet(&multipart.FileHeader{Filename: "prices.csv", Size: 10}, bytes.NewReader(zipped))
		assert.EqualError(t, err, "请上传Excel文件（.xlsx）")
	})

	t.Run("too large", func(t *testing.T) {
		err := ValidateSpreadsheet(&multipart.FileHeader{Filename: "a.xlsx", Size: 6 * 1024 * 1024}, bytes.NewReader(zipped))
		assert.EqualError(t, err, "文件大小超过5MB限制")
	})

	t.Run("text renamed to xlsx", func(t *testing.T) {
		body := []byte("小区名称,电费\n")
		err := ValidateSpreadsheet(&multipart.FileHeader{Filename: "a.xlsx", Size: int64(len(body))}, bytes.NewReader(body))
		assert.Error(t, err)
	})
}
