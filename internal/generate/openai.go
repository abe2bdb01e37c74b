// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIModel calls the chat-completions API of OpenAI or any compatible
// server selected with a base URL.
type OpenAIModel struct {
	client openai.Client
	model  string
}

// NewOpenAIModel creates an OpenAIModel. An empty key is a credential error.
func NewOpenAIModel(apiKey, model, baseURL string, httpClient *http.Client) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrCredential)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIModel{client: openai.NewClient(opts...), model: model}, nil
}

// Name returns the provider and model.
func (o *OpenAIModel) Name() string { return "openai/" + o.model }

// Complete performs one chat completion.
func (o *OpenAIModel) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	})
	if err != nil {
		return "", classify("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
