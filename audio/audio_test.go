package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{errors.New("Permission denied by system"), ErrPermissionDenied},
		{fmt.Errorf("open: %w", fs.ErrPermission), ErrPermissionDenied},
		{errors.New("no such entity"), ErrDeviceNotFound},
		{fmt.Errorf("open: %w", fs.ErrNotExist), ErrDeviceNotFound},
		{errors.New("device busy"), ErrDeviceUnavailable},
		{ErrDeviceNotFound, ErrDeviceNotFound},
	}
	for _, c := range cases {
		got := Classify(c.in)
		if !errors.Is(got, c.want) {
			t.Errorf("Classify(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrPermissionDenied); got != "Microphone access denied. Please allow microphone access." {
		t.Errorf("permission message = %q", got)
	}
	if got := UserMessage(ErrDeviceNotFound); got != "No microphone found. Please connect a microphone." {
		t.Errorf("not found message = %q", got)
	}
	got := UserMessage(Classify(errors.New("device busy")))
	if got != "Microphone is not available: device busy" {
		t.Errorf("unavailable message = %q", got)
	}
}

func TestOpenerNoDevices(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.Inputs = nil
	o := &Opener{Ctx: ctx}
	if _, err := o.Open(); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpenerMissingSelectedDevice(t *testing.T) {
	ctx := NewFakeContext(nil)
	o := &Opener{Ctx: ctx, Device: &DeviceInfo{ID: "usb-1", Name: "USB Mic"}}
	if err := o.Probe(); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpenerClassifiesOpenError(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.OpenErr = errors.New("access not allowed")
	o := &Opener{Ctx: ctx}
	if _, err := o.Open(); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestOpenerNilContext(t *testing.T) {
	var o *Opener
	if _, err := o.Open(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.Inputs = []DeviceInfo{{ID: "a", Name: "Built-in Microphone"}, {ID: "b", Name: "Blue Yeti"}}
	d, err := FindDevice(ctx, "yeti")
	if err != nil || d.ID != "b" {
		t.Fatalf("FindDevice(yeti) = %v, %v", d, err)
	}
	d, err = FindDevice(ctx, "a")
	if err != nil || d.ID != "a" {
		t.Fatalf("FindDevice(a) = %v, %v", d, err)
	}
	if _, err := FindDevice(ctx, "zzz"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestFakeCaptureDeliversPCM(t *testing.T) {
	pcm := make([]byte, 5000)
	ctx := NewFakeContext(pcm)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	var got int
	dev.SetCallback(func(data []byte, _ uint32) { got += len(data) })
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Stop()
	dev.Close()
	if got != len(pcm) {
		t.Errorf("delivered %d bytes, want %d", got, len(pcm))
	}
	starts, stops, closes := ctx.Captures()[0].Counts()
	if starts != 1 || stops != 1 || closes != 1 {
		t.Errorf("counts = %d/%d/%d", starts, stops, closes)
	}
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("empty RMS should be 0")
	}
	buf := make([]byte, 200)
	for i := 0; i < 100; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(16384))
	}
	if got := RMS(buf); got < 0.49 || got > 0.51 {
		t.Errorf("RMS = %f, want 0.5", got)
	}
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("AirPods Pro") {
		t.Error("AirPods should be bluetooth")
	}
	if IsBluetooth("Built-in Microphone") {
		t.Error("built-in mic should not be bluetooth")
	}
}
