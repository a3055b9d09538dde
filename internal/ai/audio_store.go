package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ AudioStore = (*LocalAudioStore)(nil)

// LocalAudioStore writes synthesized audio under a root directory, one
// subdirectory per conversation, and returns URLs rooted at baseURL. The
// directory is meant to be served as static content by the API process.
type LocalAudioStore struct {
	root    string
	baseURL string
}

// NewLocalAudioStore creates the root directory if it does not exist.
// baseURL is the public prefix audio files are served under, e.g.
// "https://host/audio".
func NewLocalAudioStore(root, baseURL string) (*LocalAudioStore, error) {
	if root == "" {
		return nil, errors.New("ai: audio store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ai: create audio root: %w", err)
	}
	return &LocalAudioStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalAudioStore) Save(ctx context.Context, conversationID, messageID string, audio []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", errors.New("ai: empty audio payload")
	}

	dir := filepath.Join(s.root, conversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ai: create conversation dir: %w", err)
	}

	name := messageID + extForMIME(mimeType)
	if err := os.WriteFile(filepath.Join(dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("ai: write audio file: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, conversationID, name), nil
}

func extForMIME(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}
