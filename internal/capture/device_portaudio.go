//go:build portaudio

package capture

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Enabled reports whether the binary was built with device support.
const Enabled = true

// device reads mono 16-bit frames from the default input device.
type device struct {
	stream *portaudio.Stream
	buffer []int16
	rate   int
}

// openDevice starts a capture stream delivering 100ms frames.
func openDevice(sampleRate int) (frameSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	buffer := make([]int16, sampleRate/10)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buffer), buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	return &device{stream: stream, buffer: buffer, rate: sampleRate}, nil
}

func (d *device) SampleRate() int { return d.rate }

// ReadFrame blocks for one buffer. Input overflows drop samples but are not fatal.
func (d *device) ReadFrame(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, err
	}
	frame := make([]int16, len(d.buffer))
	copy(frame, d.buffer)
	return frame, nil
}

func (d *device) Close() error {
	_ = d.stream.Stop()
	closeErr := d.stream.Close()
	if err := portaudio.Terminate(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

// CheckInput checks that a default input device exists.
func CheckInput() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	if dev.MaxInputChannels < 1 {
		return fmt.Errorf("default device %q has no input channels", dev.Name)
	}
	return nil
}
