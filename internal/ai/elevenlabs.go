package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prashantforsure/BeFriend/internal/config"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// wordsPerSecond is the speaking-rate estimate used when the provider does
// not report an audio duration. ~150 wpm conversational pace.
const wordsPerSecond = 2.5

var _ Synthesizer = (*ElevenLabsClient)(nil)

// ElevenLabsClient synthesizes speech via the ElevenLabs text-to-speech API.
// The provider has no official Go SDK, so this speaks HTTP directly.
type ElevenLabsClient struct {
	baseURL string
	apiKey  string
	modelID string
	http    *http.Client
}

func NewElevenLabsClient(cfg config.AIConfig) (*ElevenLabsClient, error) {
	if cfg.ElevenLabsKey == "" {
		return nil, errors.New("ai: ElevenLabs API key is required")
	}
	return &ElevenLabsClient{
		baseURL: elevenLabsBaseURL,
		apiKey:  cfg.ElevenLabsKey,
		modelID: cfg.ElevenLabsModelID,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

type elevenLabsTTSRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id,omitempty"`
	VoiceSettings map[string]interface{} `json:"voice_settings,omitempty"`
}

// Synthesize renders req.Text with the given provider voice and returns the
// audio bytes. Duration is estimated from the text length; ElevenLabs does
// not include it in the response.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, req SynthesisRequest) SynthesisResult {
	if req.Text == "" {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: FaultKindAPIError, Message: "empty synthesis text"}}
	}
	if req.ProviderVoiceID == "" {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: FaultKindAPIError, Message: "missing provider voice id"}}
	}

	body, err := json.Marshal(elevenLabsTTSRequest{Text: req.Text, ModelID: c.modelID})
	if err != nil {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: FaultKindAPIError, Message: err.Error()}}
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, req.ProviderVoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: FaultKindAPIError, Message: err.Error()}}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: classifyErr(err), Message: err.Error()}}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SynthesisResult{Fault: &ProviderFault{
			Provider:  "elevenlabs",
			Kind:      FaultKindAPIError,
			Message:   ExtractProviderMessage(raw),
			RawDetail: fmt.Sprintf("http %d", resp.StatusCode),
		}}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return SynthesisResult{Fault: &ProviderFault{Provider: "elevenlabs", Kind: FaultKindTransport, Message: err.Error()}}
	}

	return SynthesisResult{
		Audio:           audio,
		MIMEType:        "audio/mpeg",
		DurationSeconds: estimateDuration(req.Text),
	}
}

func estimateDuration(text string) int {
	words := len(strings.Fields(text))
	secs := int(float64(words)/wordsPerSecond + 0.5)
	if secs < 1 {
		secs = 1
	}
	return secs
}
