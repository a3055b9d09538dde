package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prashantforsure/BeFriend/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// Verify interface compliance at compile time.
var (
	_ Completer   = (*OpenAIClient)(nil)
	_ Transcriber = (*OpenAIClient)(nil)
)

// OpenAIClient implements Completer (chat) and Transcriber (Whisper) over a
// single OpenAI-compatible endpoint.
type OpenAIClient struct {
	client       *openai.Client
	chatModel    string
	whisperModel string
	timeout      time.Duration
}

func NewOpenAIClient(cfg config.AIConfig) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("ai: OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(clientCfg),
		chatModel:    cfg.ChatModel,
		whisperModel: cfg.WhisperModel,
		timeout:      cfg.RequestTimeout,
	}, nil
}

// Complete sends the assembled prompt and returns the raw completion text.
// The prompt already carries persona context and history as a single blob,
// so it travels as one user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", c.fault(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderFault{Provider: "openai", Kind: FaultKindAPIError, Message: "no completion choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe runs Whisper over the supplied recording.
func (c *OpenAIClient) Transcribe(ctx context.Context, req TranscriptionRequest) TranscriptionResult {
	if req.Audio == nil {
		return TranscriptionResult{Fault: &ProviderFault{Provider: "openai", Kind: FaultKindAPIError, Message: "no audio payload"}}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(reqCtx, openai.AudioRequest{
		Model:    c.whisperModel,
		Reader:   req.Audio,
		FilePath: req.Filename,
	})
	if err != nil {
		return TranscriptionResult{Fault: c.fault(err)}
	}
	return TranscriptionResult{Text: resp.Text}
}

// fault converts SDK errors into the structured boundary type, pulling the
// provider message out of API errors when present.
func (c *OpenAIClient) fault(err error) *ProviderFault {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderFault{
			Provider:  "openai",
			Kind:      FaultKindAPIError,
			Message:   apiErr.Message,
			RawDetail: fmt.Sprintf("http %d", apiErr.HTTPStatusCode),
		}
	}
	return &ProviderFault{
		Provider: "openai",
		Kind:     classifyErr(err),
		Message:  err.Error(),
	}
}
