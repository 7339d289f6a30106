// Package speech turns recorded audio into text through external recognition
// services and captures single phrases from a live frame source.
package speech

import (
	"context"
	"strings"
	"time"
)

// Clip is one PCM WAV file ready for submission.
type Clip struct {
	Path       string
	SampleRate int
	Channels   int
}

// Recognizer converts one clip into text.
// Implementations return errors wrapping domain.ErrUnintelligible when the
// service derived no text and domain.ErrServiceUnavailable when it was unreachable.
type Recognizer interface {
	Recognize(ctx context.Context, clip Clip, languageTag string) (string, error)
}

// isoLanguage returns the ISO-639-1 prefix of a BCP-47 tag ("hi-IN" -> "hi").
func isoLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// withTimeout bounds a single request when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
