// Package clipboard copies result text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"
)

var ErrUnsupported = errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")

var (
	readAll  = cb.ReadAll
	writeAll = cb.WriteAll
)

func Available() bool { return !cb.Unsupported }

func Read() (string, error) {
	if !Available() {
		return "", ErrUnsupported
	}
	return readAll()
}

func Copy(text string) error {
	if !Available() {
		return ErrUnsupported
	}
	return writeAll(text)
}

// Verify writes a probe string, reads it back and restores what was on the
// clipboard before.
func Verify() (string, error) {
	if !Available() {
		return "", ErrUnsupported
	}
	prev, _ := readAll()
	probe := fmt.Sprintf("orator-doctor-%d", time.Now().UnixNano())
	if err := writeAll(probe); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	got, err := readAll()
	if restoreErr := writeAll(prev); restoreErr != nil && err == nil {
		err = fmt.Errorf("restore: %w", restoreErr)
	}
	if err != nil {
		return "", err
	}
	if got != probe {
		return "", fmt.Errorf("read back %q, want %q", got, probe)
	}
	return "copy and read back verified", nil
}
