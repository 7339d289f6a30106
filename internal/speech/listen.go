package speech

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"media-translator/internal/domain"
)

// FrameSource delivers consecutive mono 16-bit frames from a live input.
type FrameSource interface {
	SampleRate() int
	ReadFrame(ctx context.Context) ([]int16, error)
}

// ListenOptions bounds one phrase capture. Durations are measured in audio
// time, so they stay exact regardless of how fast frames arrive.
type ListenOptions struct {
	Calibration  time.Duration
	StartTimeout time.Duration
	PhraseLimit  time.Duration
	Pause        time.Duration
	// MinThreshold keeps calibration in a silent room from making every
	// breath count as speech.
	MinThreshold float64
	// OnCalibrated reports the computed energy threshold.
	OnCalibrated func(threshold float64)
}

// DefaultListenOptions mirrors a typical dictation window.
func DefaultListenOptions() ListenOptions {
	return ListenOptions{
		Calibration:  time.Second,
		StartTimeout: 5 * time.Second,
		PhraseLimit:  10 * time.Second,
		Pause:        800 * time.Millisecond,
		MinThreshold: 300,
	}
}

// Recording is one captured phrase.
type Recording struct {
	Samples    []int
	SampleRate int
}

// Duration returns the recording length.
func (r Recording) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

// energyRatio scales ambient energy into the speech threshold.
const energyRatio = 1.5

// preRoll keeps audio just before the trigger so word onsets are not clipped.
const preRoll = 300 * time.Millisecond

// Listen calibrates against ambient noise, waits for speech to start, and
// records until a pause or the phrase limit. Waiting longer than
// StartTimeout fails with domain.ErrListenTimeout.
func Listen(ctx context.Context, src FrameSource, opts ListenOptions) (Recording, error) {
	rate := src.SampleRate()
	rec := Recording{SampleRate: rate}
	if rate <= 0 {
		return rec, errors.New("listen: invalid sample rate")
	}

	threshold, err := calibrate(ctx, src, opts.Calibration, rate)
	if err != nil {
		return rec, err
	}
	if threshold < opts.MinThreshold {
		threshold = opts.MinThreshold
	}
	if opts.OnCalibrated != nil {
		opts.OnCalibrated(threshold)
	}

	preRollSamples := samplesFor(preRoll, rate)
	var (
		pending  []int
		waited   int
		started  bool
		silent   int
		captured int
	)
	for {
		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if started {
					return rec, nil
				}
				return rec, domain.ErrListenTimeout
			}
			return rec, err
		}

		loud := rms(frame) > threshold
		if !started {
			if !loud {
				waited += len(frame)
				if opts.StartTimeout > 0 && waited >= samplesFor(opts.StartTimeout, rate) {
					return rec, domain.ErrListenTimeout
				}
				pending = appendFrame(pending, frame)
				if len(pending) > preRollSamples {
					pending = pending[len(pending)-preRollSamples:]
				}
				continue
			}
			started = true
			rec.Samples = append(rec.Samples, pending...)
		}

		rec.Samples = appendFrame(rec.Samples, frame)
		captured += len(frame)
		if loud {
			silent = 0
		} else {
			silent += len(frame)
		}

		if opts.Pause > 0 && silent >= samplesFor(opts.Pause, rate) {
			return rec, nil
		}
		if opts.PhraseLimit > 0 && captured >= samplesFor(opts.PhraseLimit, rate) {
			return rec, nil
		}
	}
}

// calibrate averages frame energy over the calibration window.
func calibrate(ctx context.Context, src FrameSource, window time.Duration, rate int) (float64, error) {
	need := samplesFor(window, rate)
	var (
		read   int
		energy float64
		frames int
	)
	for read < need {
		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		read += len(frame)
		energy += rms(frame)
		frames++
	}
	if frames == 0 {
		return 0, nil
	}
	return energy / float64(frames) * energyRatio, nil
}

func rms(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func appendFrame(dst []int, frame []int16) []int {
	for _, s := range frame {
		dst = append(dst, int(s))
	}
	return dst
}

func samplesFor(d time.Duration, rate int) int {
	return int(d * time.Duration(rate) / time.Second)
}
