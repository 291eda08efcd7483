package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pavletto/forestdata/internal/domain"
)

// ErrNotFound marks a remote resource that does not exist (HTTP 404).
var ErrNotFound = errors.New("remote resource not found")

// Download GETs url and writes the body to dst. The body is streamed into a
// temporary file next to dst and renamed on success, so a failed or absent
// download never leaves a file at dst. A 404 answer yields an error wrapping
// ErrNotFound; every other non-200 status or transport failure is returned
// as a transport OpError.
func Download(ctx context.Context, client *http.Client, url, dst string) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &domain.OpError{Op: "fetch.download", Kind: domain.KindInvalidInput, Path: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, &domain.OpError{Op: "fetch.download", Kind: domain.KindTransport, Path: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, &domain.OpError{Op: "fetch.download", Kind: domain.KindNotFound, Path: url, Err: ErrNotFound}
	case resp.StatusCode != http.StatusOK:
		return 0, &domain.OpError{
			Op:   "fetch.download",
			Kind: domain.KindTransport,
			Path: url,
			Err:  fmt.Errorf("http %d", resp.StatusCode),
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, &domain.OpError{Op: "fetch.download", Kind: domain.KindTransport, Path: url, Err: err}
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

// IsNotFound reports whether err came from a 404 answer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
