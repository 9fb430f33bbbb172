package encoder

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// Format is a container the backend accepts for uploaded recordings.
type Format string

const (
	WAV  Format = "wav"
	FLAC Format = "flac"
)

// Supported lists formats in preference order.
var Supported = []Format{WAV, FLAC}

func (f Format) MimeType() string {
	switch f {
	case FLAC:
		return "audio/flac"
	default:
		return "audio/wav"
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case WAV, "":
		return WAV, nil
	case FLAC:
		return FLAC, nil
	}
	return "", fmt.Errorf("unsupported audio format %q", s)
}

// Negotiate picks the first preferred format this package can produce,
// falling back to WAV.
func Negotiate(preferred ...Format) Format {
	for _, p := range preferred {
		for _, s := range Supported {
			if p == s {
				return p
			}
		}
	}
	return WAV
}

func New(f Format) (Encoder, error) {
	switch f {
	case FLAC:
		return NewFlac()
	case WAV, "":
		return NewWav(), nil
	}
	return nil, fmt.Errorf("unsupported audio format %q", f)
}

// Result is an encoded recording.
type Result struct {
	Data       []byte
	Format     Format
	Frames     uint64
	Duration   time.Duration
	EncodeTime time.Duration
}

// Encode converts little-endian 16-bit mono PCM into the given container.
func Encode(f Format, pcm []byte) (*Result, error) {
	start := time.Now()
	enc, err := New(f)
	if err != nil {
		return nil, err
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing %s: %w", f, err)
	}

	frames := enc.TotalFrames()
	return &Result{
		Data:       enc.Bytes(),
		Format:     Negotiate(f),
		Frames:     frames,
		Duration:   time.Duration(frames) * time.Second / SampleRate,
		EncodeTime: time.Since(start),
	}, nil
}
