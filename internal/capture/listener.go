// Package capture records spoken phrases from the local microphone.
//
// Device access needs cgo and the PortAudio library, so it is compiled only
// with the "portaudio" build tag. Other builds report ErrUnavailable.
package capture

import (
	"context"
	"errors"
	"fmt"

	"media-translator/internal/domain"
	"media-translator/internal/speech"
)

// ErrUnavailable reports a binary built without microphone support.
var ErrUnavailable = errors.New("microphone capture not available in this build (rebuild with -tags portaudio)")

type frameSource interface {
	speech.FrameSource
	Close() error
}

// Listener opens the default input device for each phrase.
type Listener struct {
	sampleRate int
	opts       speech.ListenOptions
	open       func(sampleRate int) (frameSource, error)
}

// NewListener returns a listener capturing at sampleRate.
func NewListener(sampleRate int, opts speech.ListenOptions) *Listener {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Listener{sampleRate: sampleRate, opts: opts, open: openDevice}
}

// Listen records one phrase and releases the device.
func (l *Listener) Listen(ctx context.Context) (speech.Recording, error) {
	src, err := l.open(l.sampleRate)
	if err != nil {
		return speech.Recording{}, fmt.Errorf("%w: open microphone: %v", domain.ErrIO, err)
	}
	defer src.Close()

	return speech.Listen(ctx, src, l.opts)
}
