package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "โอนแล้ว"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, "file.bin")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFile(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content []byte
		limit   int64
		want    []byte
		wantErr error
	}{
		{name: "файл прочитан", field: "slip", content: []byte("abc"), limit: 10, want: []byte("abc")},
		{name: "файл не передан", field: "", limit: 10, want: nil},
		{name: "пустой файл", field: "slip", content: []byte{}, limit: 10, want: nil},
		{name: "файл больше лимита", field: "slip", content: []byte(strings.Repeat("x", 11)), limit: 10, wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, tt.field, tt.content)
			rec := httptest.NewRecorder()
			require.NoError(t, ParseForm(rec, req, 1<<20))

			got, err := File(req, "slip", tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "โอนแล้ว", req.FormValue("note"))
		})
	}
}

func TestParseForm_Errors(t *testing.T) {
	t.Run("тело больше лимита", func(t *testing.T) {
		req := multipartRequest(t, "slip", bytes.Repeat([]byte("x"), 4096))
		err := ParseForm(httptest.NewRecorder(), req, 512)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("не multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json")
		err := ParseForm(httptest.NewRecorder(), req, 512)
		assert.ErrorIs(t, err, ErrNotMultipart)
	})
}
