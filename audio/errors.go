package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	ErrDeviceUnavailable = errors.New("microphone unavailable")
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceNotFound    = errors.New("no microphone found")
)

var (
	permissionHints = []string{"permission", "denied", "not allowed", "access"}
	notFoundHints   = []string{"no such", "not found", "no device", "no source", "no entity"}
)

// Classify maps a backend error onto one of the capture error kinds.
// Errors that already carry a kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDeviceUnavailable) || errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceNotFound) {
		return err
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}

	msg := strings.ToLower(err.Error())
	for _, h := range permissionHints {
		if strings.Contains(msg, h) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	for _, h := range notFoundHints {
		if strings.Contains(msg, h) {
			return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}

// UserMessage is the text shown when a capture device cannot be acquired.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Please allow microphone access."
	case errors.Is(err, ErrDeviceNotFound):
		return "No microphone found. Please connect a microphone."
	default:
		return "Microphone is not available: " + detail(err)
	}
}

func detail(err error) string {
	if err == nil {
		return "unknown error"
	}
	s := err.Error()
	if i := strings.Index(s, ": "); i >= 0 && errors.Is(err, ErrDeviceUnavailable) {
		return s[i+2:]
	}
	return s
}
