package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"media-translator/internal/domain"
	"media-translator/internal/speech"
)

// loudSource is silent for one second, then loud, and records Close.
type loudSource struct {
	amp    int16
	reads  int
	closed bool
}

func (s *loudSource) SampleRate() int { return 1000 }

func (s *loudSource) ReadFrame(ctx context.Context) ([]int16, error) {
	s.reads++
	frame := make([]int16, 100)
	if s.reads <= 10 {
		return frame, nil
	}
	for i := range frame {
		frame[i] = s.amp
	}
	return frame, nil
}

func (s *loudSource) Close() error {
	s.closed = true
	return nil
}

func testOptions() speech.ListenOptions {
	return speech.ListenOptions{
		Calibration:  time.Second,
		StartTimeout: 2 * time.Second,
		PhraseLimit:  3 * time.Second,
		Pause:        500 * time.Millisecond,
		MinThreshold: 300,
	}
}

// TestListenerClosesDevice checks the phrase is captured and the device released.
func TestListenerClosesDevice(t *testing.T) {
	src := &loudSource{amp: 4000}
	l := NewListener(1000, testOptions())
	l.open = func(rate int) (frameSource, error) {
		if rate != 1000 {
			t.Fatalf("rate = %d, want 1000", rate)
		}
		return src, nil
	}

	rec, err := l.Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if rec.Duration() != 3*time.Second {
		t.Fatalf("duration = %s, want 3s", rec.Duration())
	}
	if !src.closed {
		t.Fatal("device should be closed")
	}
}

// TestListenerOpenFailureIsIO checks device errors are classified.
func TestListenerOpenFailureIsIO(t *testing.T) {
	l := NewListener(0, testOptions())
	l.open = func(int) (frameSource, error) { return nil, ErrUnavailable }

	_, err := l.Listen(context.Background())
	if !errors.Is(err, domain.ErrIO) {
		t.Fatalf("Listen() error = %v, want %v", err, domain.ErrIO)
	}
}
