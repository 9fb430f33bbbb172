// Package beep plays the recording cue tones and raw PCM such as synthesized
// prompts.
package beep

import (
	"context"
	"encoding/binary"
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

// Disable silences the cue tones. PlayPCM is unaffected.
func Disable() { disabled.Store(true) }

func Disabled() bool { return disabled.Load() }

const (
	sampleRate = 44100

	// Start cue: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End cue: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error cue: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	// Countdown tick: soft and very short
	tickFreq   = 700
	tickVolume = 0.3
	tickDecay  = 90
)

var (
	startTone = generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay)
	endTone   = generateTick(sampleRate, endFreq, 0.2, endVolume, endDecay)
	errorTone = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	tickTone  = generateTick(sampleRate, tickFreq, 0.08, tickVolume, tickDecay)
)

func PlayStart() { cue(startTone) }
func PlayEnd()   { cue(endTone) }
func PlayError() { cue(errorTone) }
func PlayTick()  { cue(tickTone) }

func cue(samples []int16) {
	if disabled.Load() {
		return
	}
	go func() { _ = play(context.Background(), samples, sampleRate) }()
}

// PlayPCM plays mono 16-bit samples and blocks until playback finishes or
// ctx is cancelled.
func PlayPCM(ctx context.Context, samples []int16, rate int) error {
	if len(samples) == 0 {
		return nil
	}
	return play(ctx, samples, rate)
}

// Samples decodes little-endian 16-bit PCM.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

func generateTick(rate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(rate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(rate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(rate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(rate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
