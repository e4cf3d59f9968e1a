// Package packager assembles the access review function's source tree
// into a single zip archive suitable for a Lambda code upload. The
// archive is rebuilt from scratch on every run so stale build output can
// never leak into a deployment.
package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Fixed build locations relative to the working directory.
const (
	DefaultStagingDir  = "build/staging"
	DefaultArchivePath = "build/access-review.zip"
)

// Entry timestamps are pinned so packaging an unchanged source tree
// produces byte-identical archives.
var archiveEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

type Packager struct {
	sourceDir   string
	stagingDir  string
	archivePath string
}

func New(sourceDir string) *Packager {
	return &Packager{
		sourceDir:   sourceDir,
		stagingDir:  DefaultStagingDir,
		archivePath: DefaultArchivePath,
	}
}

// NewWithPaths creates a Packager with custom staging and archive
// locations. This is useful for testing.
func NewWithPaths(sourceDir, stagingDir, archivePath string) *Packager {
	return &Packager{
		sourceDir:   sourceDir,
		stagingDir:  stagingDir,
		archivePath: archivePath,
	}
}

// Package wipes and recreates the staging directory, copies the source
// tree into it preserving relative paths, and compresses the staged
// contents into the archive path, overwriting any prior archive. The
// staging directory is left behind as scratch space.
func (p *Packager) Package(ctx context.Context) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.RemoveAll(p.stagingDir); err != nil {
		return "", fmt.Errorf("failed to remove staging directory %s: %w", p.stagingDir, err)
	}
	if err := os.MkdirAll(p.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", p.stagingDir, err)
	}

	if err := p.copyTree(); err != nil {
		return "", err
	}

	if err := p.compress(); err != nil {
		return "", err
	}

	logger.Info().
		Str("source_dir", p.sourceDir).
		Str("archive", p.archivePath).
		Msg("Packaged function source")
	return p.archivePath, nil
}

// copyTree copies every file under the source directory into staging,
// preserving relative paths.
func (p *Packager) copyTree() error {
	return filepath.WalkDir(p.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to read source directory %s: %w", p.sourceDir, err)
		}

		rel, err := filepath.Rel(p.sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(p.stagingDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// compress writes the staged tree into a zip archive. Walk order is
// lexical and timestamps are fixed, so output is deterministic.
func (p *Packager) compress() error {
	if err := os.MkdirAll(filepath.Dir(p.archivePath), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	out, err := os.Create(p.archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", p.archivePath, err)
	}

	writer := zip.NewWriter(out)
	err = filepath.WalkDir(p.stagingDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(p.stagingDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		return addToZip(writer, path, filepath.ToSlash(rel), d.IsDir())
	})
	if err != nil {
		_ = writer.Close()
		_ = out.Close()
		return fmt.Errorf("failed to compress staging directory: %w", err)
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

func addToZip(writer *zip.Writer, path, name string, isDir bool) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	}
	if isDir {
		header.Name += "/"
		header.SetMode(0o755 | fs.ModeDir)
	} else {
		header.SetMode(0o644)
	}

	w, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	if isDir {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}
