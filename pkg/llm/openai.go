package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

// OpenAIModel adapts an OpenAI-compatible chat endpoint to llms.Model, so
// local servers such as vLLM or LM Studio can stand in for the hosted model.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ llms.Model = (*OpenAIModel)(nil)

func NewOpenAIModel(apiKey, baseURL, model string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}
}

func roleFor(t llms.ChatMessageType) string {
	switch t {
	case llms.ChatMessageTypeSystem:
		return openai.ChatMessageRoleSystem
	case llms.ChatMessageTypeAI:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func (m *OpenAIModel) request(messages []llms.MessageContent, opts llms.CallOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	for _, mc := range messages {
		var b strings.Builder
		for _, part := range mc.Parts {
			if text, ok := part.(llms.TextContent); ok {
				b.WriteString(text.Text)
			}
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    roleFor(mc.Role),
			Content: b.String(),
		})
	}
	return req
}

// GenerateContent implements llms.Model.
func (m *OpenAIModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	req := m.request(messages, opts)

	if opts.StreamingFunc != nil {
		return m.stream(ctx, req, opts.StreamingFunc)
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion")
	}

	out := &llms.ContentResponse{}
	for _, c := range resp.Choices {
		out.Choices = append(out.Choices, &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
		})
	}
	return out, nil
}

func (m *OpenAIModel) stream(ctx context.Context, req openai.ChatCompletionRequest, fn func(context.Context, []byte) error) (*llms.ContentResponse, error) {
	req.Stream = true
	s, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var b strings.Builder
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		if err := fn(ctx, []byte(delta)); err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: b.String()}}}, nil
}

// Call implements llms.Model.
func (m *OpenAIModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
