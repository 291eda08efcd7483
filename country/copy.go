package country

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pavletto/forestdata/internal/domain"
)

// CopiedFile records one file placed in the output tree.
type CopiedFile struct {
	Src string
	Dst string
}

// copyFile copies content, permission bits and modification time of src to
// dst, replacing dst. Links are never created.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &domain.OpError{Op: "country.copy", Kind: domain.KindCopy, Path: src, Err: err}
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return &domain.OpError{Op: "country.copy", Kind: domain.KindCopy, Path: src, Err: err}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return &domain.OpError{Op: "country.copy", Kind: domain.KindCopy, Path: dst, Err: err}
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(dst, fi.Mode().Perm())
	}
	if err == nil {
		err = os.Chtimes(dst, fi.ModTime(), fi.ModTime())
	}
	if err != nil {
		return &domain.OpError{Op: "country.copy", Kind: domain.KindCopy, Path: dst, Err: err}
	}
	return nil
}

// resolve lists the scratch files o refers to, sorted for globs.
func (o output) resolve(scratch string) ([]string, error) {
	if !o.glob {
		return []string{filepath.Join(scratch, o.src)}, nil
	}
	matches, err := filepath.Glob(filepath.Join(scratch, o.src))
	if err != nil {
		return nil, &domain.OpError{Op: "country.copy", Kind: domain.KindInvalidInput, Path: o.src, Err: err}
	}
	files := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (o output) target(outputDir, src string) string {
	name := filepath.Base(src)
	if o.rename != "" {
		name = o.rename
	}
	return filepath.Join(outputDir, o.subdir, name)
}
