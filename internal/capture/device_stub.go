//go:build !portaudio

package capture

// Enabled reports whether the binary was built with device support.
const Enabled = false

func openDevice(int) (frameSource, error) {
	return nil, ErrUnavailable
}

// CheckInput always fails without the portaudio build tag.
func CheckInput() error {
	return ErrUnavailable
}
