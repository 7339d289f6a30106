package media

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmFormat is the WAVE format tag for integer PCM.
const pcmFormat = 1

// Recognizers get LINEAR16 mono at no more than 16 kHz, the shape
// ExtractAudio and Normalize produce. A 60 s chunk then stays near 1.9 MB,
// under Cloud Speech's inline content limit.
const (
	SpeechBitDepth  = 16
	SpeechChannels  = 1
	MaxSpeechRateHz = 16000
)

var (
	// ErrNotPCM reports a file go-audio cannot decode as integer PCM.
	ErrNotPCM = errors.New("not a PCM wav file")
	// ErrNeedsConversion reports PCM that must be resampled or remixed first.
	ErrNeedsConversion = errors.New("wav is not 16-bit mono at 16 kHz or less")
)

// SpeechReady reports whether buf can be sent to a recognizer unchanged.
func SpeechReady(buf *audio.IntBuffer) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("%w: missing format", ErrNeedsConversion)
	}
	depth, channels, rate := buf.SourceBitDepth, buf.Format.NumChannels, buf.Format.SampleRate
	if depth != SpeechBitDepth || channels != SpeechChannels || rate <= 0 || rate > MaxSpeechRateHz {
		return fmt.Errorf("%w: %d-bit, %d channel(s), %d Hz", ErrNeedsConversion, depth, channels, rate)
	}
	return nil
}

// ReadWAV decodes a PCM WAV file fully into memory.
func ReadWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrNotPCM, path)
	}
	if decoder.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("%w: %s uses format %d", ErrNotPCM, path, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return buf, nil
}

// WriteWAV encodes samples as PCM at the buffer's format and bit depth.
func WriteWAV(path string, buf *audio.IntBuffer) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("write %s: missing audio format", path)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	encoder := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, pcmFormat)
	if err := encoder.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}

// DurationMs returns the playback length of buf in milliseconds.
func DurationMs(buf *audio.IntBuffer) int {
	frames, rate := frameCount(buf), sampleRate(buf)
	if frames == 0 || rate == 0 {
		return 0
	}
	return int(int64(frames) * 1000 / int64(rate))
}
