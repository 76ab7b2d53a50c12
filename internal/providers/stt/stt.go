package stt

import (
	"context"
	"errors"
	"strings"
)

// Result is one transcription outcome. Confidence is 0.0-1.0; callers decide
// whether a low score is trustworthy enough for downstream analysis.
type Result struct {
	Text       string
	Confidence float64
}

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, format string) (Result, error)
	Close() error
}

var (
	ErrEmptyAudio        = errors.New("audio is empty")
	ErrAudioTooLarge     = errors.New("audio exceeds maximum size")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// NormalizeFormat maps a format hint (file extension or mime subtype) to the
// canonical key used by encoding lookups. Returns "" when unsupported.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	switch f {
	case "wav", "wave", "linear16":
		return "wav"
	case "flac":
		return "flac"
	case "mp3", "mpeg":
		return "mp3"
	case "ogg", "opus", "ogg_opus":
		return "ogg"
	case "webm", "webm_opus":
		return "webm"
	case "amr":
		return "amr"
	default:
		return ""
	}
}
