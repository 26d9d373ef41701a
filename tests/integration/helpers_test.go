package integration_test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// multipartWriter fills buf with a multipart body carrying the file under
// the "image" field plus extra form fields, and returns the content type.
func multipartWriter(t *testing.T, buf *bytes.Buffer, filename string, content []byte, fields map[string]string) string {
	t.Helper()

	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return writer.FormDataContentType()
}
