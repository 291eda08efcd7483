package fetch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavletto/forestdata/internal/domain"
)

// ExtractAll unpacks every member of the zip archive at src into dir and
// returns the extracted file paths in archive order. Members escaping dir
// are rejected.
func ExtractAll(src, dir string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, &domain.OpError{Op: "fetch.extract", Kind: domain.KindArchive, Path: src, Err: err}
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, zf := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return out, &domain.OpError{
				Op:   "fetch.extract",
				Kind: domain.KindArchive,
				Path: src,
				Err:  fmt.Errorf("member %q escapes %s", zf.Name, dir),
			}
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return out, err
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return out, &domain.OpError{Op: "fetch.extract", Kind: domain.KindArchive, Path: src, Err: err}
		}
		out = append(out, target)
	}
	return out, nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
