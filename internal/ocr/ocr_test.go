package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/partsbin/internal/config"
)

var (
	_ Recognizer = (*OpenAIRecognizer)(nil)
	_ Recognizer = (*PDFRecognizer)(nil)
	_ Recognizer = (*TextRecognizer)(nil)
)

func TestNew(t *testing.T) {
	t.Run("text service", func(t *testing.T) {
		r, err := New(ServiceText, config.OCRConfig{})
		require.NoError(t, err)
		assert.Equal(t, ServiceText, r.Service())
	})

	t.Run("pdf service", func(t *testing.T) {
		r, err := New(ServicePDF, config.OCRConfig{})
		require.NoError(t, err)
		assert.Equal(t, ServicePDF, r.Service())
	})

	t.Run("openai requires api key", func(t *testing.T) {
		_, err := New(ServiceOpenAI, config.OCRConfig{})
		assert.Error(t, err)
	})

	t.Run("openai with key", func(t *testing.T) {
		r, err := New(ServiceOpenAI, config.OCRConfig{OpenAI: config.OpenAIConfig{APIKey: "k"}})
		require.NoError(t, err)
		assert.Equal(t, ServiceOpenAI, r.Service())
		assert.Equal(t, config.DefaultOpenAIOCRModel, r.(*OpenAIRecognizer).ModelName())
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := New("tesseract", config.OCRConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown recognition service")
	})
}

func TestTextRecognizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.txt")
	require.NoError(t, os.WriteFile(path, []byte("100uF 5 pcs $1.50"), 0644))

	text, err := NewTextRecognizer().Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "100uF 5 pcs $1.50", text)

	_, err = NewTextRecognizer().Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewTextRecognizer().Recognize(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFRecognizerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slip.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	_, err := NewPDFRecognizer().Recognize(context.Background(), path)
	assert.Error(t, err)
}

func mockOpenAIServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if seen != nil {
			assert.NoError(t, json.Unmarshal(body, seen))
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIRecognizer(t *testing.T) {
	var seen map[string]any
	server := mockOpenAIServer(t, "10kΩ resistor\n25 pcs", &seen)
	defer server.Close()

	r, err := NewOpenAIRecognizer(config.OCRConfig{
		RateLimit: 100,
		OpenAI: config.OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL + "/",
			Model:   "gpt-4o-mini",
		},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bag.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0644))

	text, err := r.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "10kΩ resistor\n25 pcs", text)

	assert.Equal(t, "gpt-4o-mini", seen["model"])
	raw, err := json.Marshal(seen["messages"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "data:image/png;base64,")
}

func TestOpenAIRecognizerHandlesTextLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for text documents")
	}))
	defer server.Close()

	r, err := NewOpenAIRecognizer(config.OCRConfig{
		OpenAI: config.OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("22nF"), 0644))

	text, err := r.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "22nF", text)
}
