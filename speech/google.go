package speech

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"orator/audio"
	"orator/beep"
)

const googleSampleRate = 16000

type synthesizer interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

// Google synthesizes with Cloud Text-to-Speech and plays the result locally.
type Google struct {
	client synthesizer
	closer func() error
	voice  string
	rate   float64
	play   func(ctx context.Context, samples []int16, rate int) error
}

func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	var opts []option.ClientOption
	if cfg.GoogleAPIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.GoogleAPIKey))
	}
	if cfg.GoogleCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
	}
	c, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech client: %w", err)
	}
	return &Google{client: c, closer: c.Close, voice: cfg.Voice, rate: cfg.rate(), play: beep.PlayPCM}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) request(text string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: Language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: googleSampleRate,
			SpeakingRate:    g.rate,
		},
	}
}

func (g *Google) Speak(ctx context.Context, text string) error {
	resp, err := g.client.SynthesizeSpeech(ctx, g.request(text))
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	return g.play(ctx, beep.Samples(stripWAVHeader(resp.GetAudioContent())), googleSampleRate)
}

func (g *Google) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

// LINEAR16 responses carry a WAV header.
func stripWAVHeader(b []byte) []byte {
	if len(b) > audio.WAVHeaderSize && string(b[:4]) == "RIFF" {
		return b[audio.WAVHeaderSize:]
	}
	return b
}
