package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	fontDownloadTimeout = 5 * time.Minute
	// maxFontBytes caps one catalog download.
	maxFontBytes = 32 << 20
)

var errNotAFont = errors.New("downloaded file is not a TrueType or OpenType font")

// downloadFunc fetches a font from url into dest.
type downloadFunc func(ctx context.Context, dest, url string) error

// fontFetcher downloads catalog fonts. A file only replaces dest once it
// is complete and starts with an sfnt header.
type fontFetcher struct {
	client   *http.Client
	maxBytes int64
}

func newFontFetcher() *fontFetcher {
	return &fontFetcher{
		client:   &http.Client{Timeout: fontDownloadTimeout},
		maxBytes: maxFontBytes,
	}
}

// Fetch implements downloadFunc.
func (f *fontFetcher) Fetch(ctx context.Context, dest, url string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create fonts dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "media-translator")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".font-*.download")
	if err != nil {
		return fmt.Errorf("create temp font: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write font: %w", err)
	}
	if n > f.maxBytes {
		return fmt.Errorf("font at %s exceeds %d bytes", url, f.maxBytes)
	}
	if err := checkFontFile(tmp.Name()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// sfntTags are the leading four bytes of TrueType, OpenType and TrueType
// collection files.
var sfntTags = [][]byte{{0x00, 0x01, 0x00, 0x00}, []byte("OTTO"), []byte("true"), []byte("ttcf")}

func checkFontFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return errNotAFont
	}
	for _, tag := range sfntTags {
		if bytes.Equal(head, tag) {
			return nil
		}
	}
	return errNotAFont
}
