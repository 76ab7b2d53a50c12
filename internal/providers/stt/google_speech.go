package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

var encodings = map[string]speechpb.RecognitionConfig_AudioEncoding{
	"wav":  speechpb.RecognitionConfig_LINEAR16,
	"flac": speechpb.RecognitionConfig_FLAC,
	"mp3":  speechpb.RecognitionConfig_MP3,
	"ogg":  speechpb.RecognitionConfig_OGG_OPUS,
	"webm": speechpb.RecognitionConfig_WEBM_OPUS,
	"amr":  speechpb.RecognitionConfig_AMR,
}

type GoogleSpeech struct {
	c *speech.Client

	SampleRateHz int32
	LanguageCode string
	MaxBytes     int64
}

func NewGoogleSpeech(ctx context.Context, sampleRateHz int32, languageCode string, maxBytes int64) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 16000
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	return &GoogleSpeech{
		c:            c,
		SampleRateHz: sampleRateHz,
		LanguageCode: languageCode,
		MaxBytes:     maxBytes,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe runs synchronous recognition over one recording. Input checks
// fail fast so oversized or unreadable uploads never reach the API.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, format string) (Result, error) {
	if len(audio) == 0 {
		return Result{}, ErrEmptyAudio
	}
	if int64(len(audio)) > g.MaxBytes {
		return Result{}, ErrAudioTooLarge
	}

	enc, ok := encodings[NormalizeFormat(format)]
	if !ok {
		return Result{}, ErrUnsupportedFormat
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   enc,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               g.LanguageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return Result{}, err
	}

	var best Result
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && float64(alt.Confidence) >= best.Confidence {
				best = Result{Text: alt.Transcript, Confidence: float64(alt.Confidence)}
			}
		}
	}
	return best, nil
}
