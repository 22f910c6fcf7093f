package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/finassist/finance-assistant/internal/model"
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI client. The model identifier is fixed
// for the lifetime of the client.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

// ChatWithTools sends the conversation with tool schemas and auto tool choice.
func (c *OpenAIClient) ChatWithTools(ctx context.Context, messages []model.Message, tools []openai.Tool) (*Turn, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model:      c.model,
		Messages:   model.ToOpenAI(messages),
		Tools:      tools,
		ToolChoice: "auto",
	})
}

// Chat sends the conversation without tool schemas.
func (c *OpenAIClient) Chat(ctx context.Context, messages []model.Message) (*Turn, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: model.ToOpenAI(messages),
	})
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (*Turn, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: empty response")
	}

	msg := resp.Choices[0].Message
	return &Turn{
		Content:   msg.Content,
		ToolCalls: model.FromOpenAIToolCalls(msg.ToolCalls),
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

// classify maps API failures onto the service-level error classes. Anything
// not recognized passes through unchanged.
func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case 429:
		return fmt.Errorf("%w: %v", ErrQuota, err)
	case 401, 403:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return err
}
