//go:build !linux

package beep

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx  *malgo.AllocatedContext
	malgoErr  error
	soundOnce sync.Once
	playMu    sync.Mutex
)

func initContext() {
	malgoCtx, malgoErr = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
}

// play opens a playback device per call; cues and prompts never overlap.
func play(ctx context.Context, samples []int16, rate int) error {
	soundOnce.Do(initContext)
	if malgoErr != nil {
		return malgoErr
	}
	playMu.Lock()
	defer playMu.Unlock()

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(rate)

	done := make(chan struct{})
	var once sync.Once
	pos := 0
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			n := copy(out[:min(int(frameCount)*2, len(out))], pcm[pos:])
			pos += n
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if pos >= len(pcm) {
				once.Do(func() { close(done) })
			}
		},
	}
	device, err := malgo.InitDevice(malgoCtx.Context, config, callbacks)
	if err != nil {
		return err
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	device.Stop()
	return ctx.Err()
}
