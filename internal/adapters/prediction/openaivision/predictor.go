package openaivision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"pill-tracker/internal/ports/prediction"
)

const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You identify medication pills from photos.
Answer only with a JSON object: {"label": "<pill or brand name>", "confidence": <0..1>}.
If the image does not show a pill, use an empty label and confidence 0.`

type Config struct {
	APIKey  string
	BaseURL string // opcional, para APIs compatibles con OpenAI
	Model   string
}

// Predictor implementa prediction.Predictor con un modelo de visión vía chat completions.
type Predictor struct {
	client *openai.Client
	model  string
}

func New(cfg Config) (*Predictor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, prediction.ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Predictor{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}, nil
}

func (p *Predictor) Predict(ctx context.Context, img prediction.Image) (prediction.Result, error) {
	ct := img.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	dataURL := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Which pill is this?",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return prediction.Result{}, fmt.Errorf("%w: chat completion failed: %v", prediction.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return prediction.Result{}, fmt.Errorf("%w: no choices in response", prediction.ErrUpstream)
	}

	return parseAnswer(resp.Choices[0].Message.Content)
}

func parseAnswer(content string) (prediction.Result, error) {
	content = strings.TrimSpace(content)
	// Algunos modelos envuelven el JSON en un bloque de código.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if !gjson.Valid(content) {
		return prediction.Result{}, fmt.Errorf("%w: answer is not json", prediction.ErrUpstream)
	}
	return prediction.Result{
		Label:      strings.TrimSpace(gjson.Get(content, "label").String()),
		Confidence: gjson.Get(content, "confidence").Float(),
	}, nil
}
