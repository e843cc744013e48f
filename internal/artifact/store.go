// Package artifact writes screenshots of a run into one directory per run and
// archives that directory.
package artifact

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/errs"
)

// Store is a run directory under a root artifact directory
type Store struct {
	runID string
	dir   string
	log   *zap.Logger
}

// Open creates <root>/<run-id>. The run id is a fresh UUID.
func Open(root string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ArtifactCapture, "create artifact directory", err)
	}
	log.Debug("Artifact directory ready", zap.String("dir", dir))
	return &Store{runID: runID, dir: dir, log: log}, nil
}

func (s *Store) RunID() string { return s.runID }
func (s *Store) Dir() string   { return s.dir }

// Save writes data as <dir>/<name>. Names are flattened to one path element.
func (s *Store) Save(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("Artifact write failed", zap.String("path", path), zap.Error(err))
		return "", errs.Wrap(errs.ArtifactCapture, "write "+path, err)
	}
	return path, nil
}

// Screenshot captures the current page as <name>.png.
func (s *Store) Screenshot(ctx context.Context, drv driver.Driver, name string) (string, error) {
	data, err := drv.Screenshot(ctx)
	if err != nil {
		s.log.Warn("Page screenshot failed", zap.String("name", name), zap.Error(err))
		return "", errs.Wrap(errs.ArtifactCapture, "capture page screenshot", err)
	}
	return s.Save(withPNG(name), data)
}

// ElementScreenshot captures one element as <name>.png.
func (s *Store) ElementScreenshot(ctx context.Context, el driver.Element, name string) (string, error) {
	data, err := el.Screenshot(ctx)
	if err != nil {
		s.log.Warn("Element screenshot failed", zap.String("name", name), zap.Error(err))
		return "", errs.Wrap(errs.ArtifactCapture, "capture element screenshot", err)
	}
	return s.Save(withPNG(name), data)
}

// ElementsScreenshots captures each element as <name>_<i>.png, i from 1.
func (s *Store) ElementsScreenshots(ctx context.Context, els []driver.Element, name string) ([]string, error) {
	base := strings.TrimSuffix(name, ".png")
	paths := make([]string, 0, len(els))
	for i, el := range els {
		path, err := s.ElementScreenshot(ctx, el, fmt.Sprintf("%s_%d", base, i+1))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Archive zips the run directory into dest+".zip" and returns its path.
func (s *Store) Archive(dest string) (string, error) {
	out := dest + ".zip"
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", errs.Wrap(errs.ArtifactCapture, "create archive directory", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", errs.Wrap(errs.ArtifactCapture, "create "+out, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return "", errs.Wrap(errs.ArtifactCapture, "archive "+s.dir, err)
	}
	if err := zw.Close(); err != nil {
		return "", errs.Wrap(errs.ArtifactCapture, "finish "+out, err)
	}
	s.log.Info("Artifacts archived", zap.String("archive", out))
	return out, nil
}

func withPNG(name string) string {
	if strings.HasSuffix(name, ".png") {
		return name
	}
	return name + ".png"
}

func sanitize(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "artifact"
	}
	return name
}
