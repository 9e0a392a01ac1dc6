// Package assistant: OpenAI-совместимый клиент для маппинга колонок.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"catalog-service/internal/catalog/service"
)

type Config struct {
	APIKey  string
	BaseURL string // пусто = api.openai.com
	Model   string
}

// Client реализует service.Assistant поверх Chat Completions со Structured Outputs.
type Client struct {
	api   *openai.Client
	model openai.ChatModel
}

func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// повторы решает маппер, SDK не должен съедать бюджет времени
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	cl := openai.NewClient(opts...)
	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &Client{api: &cl, model: model}
}

var errEmpty = errors.New("openai: empty choices")

func (c *Client) Complete(ctx context.Context, req service.AssistRequest) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.Instructions),
		openai.UserMessage("INPUT_JSON:\n" + req.Input),
	}
	if req.Feedback != "" {
		msgs = append(msgs, openai.UserMessage(req.Feedback))
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Seed:     openai.Int(42),
		Model:    c.model,
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.SchemaName,
					Description: openai.String("Supplier price list columns to catalog fields"),
					Schema:      req.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	chat, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", errEmpty
	}
	return chat.Choices[0].Message.Content, nil
}
