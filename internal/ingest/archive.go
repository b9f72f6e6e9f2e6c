package ingest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"berlin-airquality/internal/tabular"
)

// ExtractArchive unpacks every entry of the zip archive into dir and returns
// the paths of the extracted files. Existing files are overwritten.
func ExtractArchive(archive, dir string) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrArchive, archive, err)
	}
	defer func() { _ = zr.Close() }()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	var out []string
	for _, zf := range zr.File {
		name := filepath.FromSlash(zf.Name)
		if !filepath.IsLocal(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeEntry, zf.Name)
		}
		target := filepath.Join(dir, name)

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
	}
	src, err := zf.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %q: %w", ErrArchive, zf.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("%w: extract entry %q: %w", ErrArchive, zf.Name, err)
	}
	return dst.Close()
}

// DiscoverTables returns every readable table file below dir in lexical
// order. macOS resource forks are skipped.
func DiscoverTables(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "__MACOSX" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), "._") || !tabular.IsTableFile(path) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return out, nil
}
