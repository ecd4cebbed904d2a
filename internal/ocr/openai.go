package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/fs"
)

// extractionPrompt is the single fixed instruction sent with every image.
const extractionPrompt = `Transcribe all text printed on this electronics component, label or bag.
Output plain text only, one label line per line, with no commentary.`

// OpenAIRecognizer reads images through an OpenAI vision model. PDF and
// text documents are handled locally without a request.
type OpenAIRecognizer struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	text    *TextRecognizer
	pdf     *PDFRecognizer
}

// NewOpenAIRecognizer creates a vision recognizer from configuration.
func NewOpenAIRecognizer(cfg config.OCRConfig) (*OpenAIRecognizer, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.APIKey),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.Timeout)*time.Second))
	}

	model := cfg.OpenAI.Model
	if model == "" {
		model = config.DefaultOpenAIOCRModel
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &OpenAIRecognizer{
		client:  openai.NewClient(opts...),
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
		text:    NewTextRecognizer(),
		pdf:     NewPDFRecognizer(),
	}, nil
}

// Recognize returns the text the model reads from file.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, file string) (string, error) {
	switch fs.DetectKind(file) {
	case fs.KindPDF:
		return r.pdf.Recognize(ctx, file)
	case fs.KindText:
		return r.text.Recognize(ctx, file)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	dataURL := "data:" + fs.MIMEType(file) + ";base64," + base64.StdEncoding.EncodeToString(data)

	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	log.Debug("Requesting recognition from OpenAI", "model", r.model, "file", file)

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(extractionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize image: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no recognition result returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Service returns the service name.
func (r *OpenAIRecognizer) Service() string {
	return ServiceOpenAI
}

// ModelName returns the model name.
func (r *OpenAIRecognizer) ModelName() string {
	return r.model
}
