// Package remote maps transport and API errors from external services onto
// the domain failure sentinels.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"

	"media-translator/internal/domain"
)

// Classify wraps err with domain.ErrServiceUnavailable when the service could
// not be reached or reported itself unavailable. Cancellation passes through.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	if Unavailable(err) {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	return err
}

// Unavailable reports whether err means the remote side was unreachable.
func Unavailable(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return unavailableStatus(gErr.Code)
	}

	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return unavailableStatus(oErr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func unavailableStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}
