package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// TestFontFetcherWritesFont checks a valid TrueType body lands at dest.
func TestFontFetcherWritesFont(t *testing.T) {
	body := append([]byte{0x00, 0x01, 0x00, 0x00}, make([]byte, 64)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "media-translator" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "fonts", "NotoSansTamil-Regular.ttf")
	if err := newFontFetcher().Fetch(context.Background(), dest, srv.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || len(got) != len(body) {
		t.Fatalf("font = %d bytes, %v", len(got), err)
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 1 {
		t.Fatalf("fonts dir = %v, want only the font", entries)
	}
}

// TestFontFetcherRejectsBadDownloads keeps dest untouched on failure.
func TestFontFetcherRejectsBadDownloads(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr error
	}{
		{name: "html error page", status: http.StatusOK, body: []byte("<html>rate limited</html>"), wantErr: errNotAFont},
		{name: "not found", status: http.StatusNotFound, body: []byte("404")},
		{name: "too large", status: http.StatusOK, body: append([]byte("OTTO"), make([]byte, 100)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			fetcher := newFontFetcher()
			fetcher.maxBytes = 64
			dest := filepath.Join(t.TempDir(), "font.ttf")
			err := fetcher.Fetch(context.Background(), dest, srv.URL)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
				t.Fatalf("dest should not exist, stat err = %v", statErr)
			}
			entries, _ := os.ReadDir(filepath.Dir(dest))
			if len(entries) != 0 {
				t.Fatalf("temp files left behind: %v", entries)
			}
		})
	}
}
