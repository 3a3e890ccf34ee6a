package usecase

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// Directories never shipped in a source distribution.
var excludedDirs = map[string]bool{
	".git":          true,
	"dist":          true,
	".venv":         true,
	"__pycache__":   true,
	".mypy_cache":   true,
	".pytest_cache": true,
	"node_modules":  true,
}

type publishUseCase struct {
	index interfaces.PackageIndex
}

// NewPublish creates the publisher. Uploads go through the package index
// client, which owns the credential.
func NewPublish(index interfaces.PackageIndex) interfaces.PublishUseCase {
	return &publishUseCase{index: index}
}

// Build creates the source distribution archive under dist/ inside the
// project directory. Entries are rooted under <name>-<version>/ and the
// SHA-256 digest is computed while writing.
func (uc *publishUseCase) Build(ctx context.Context, project *model.Project, version string) (*model.Artifact, error) {
	logger := ctxlog.From(ctx)

	distDir := filepath.Join(project.Dir, "dist")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create dist directory", goerr.V("dir", distDir))
	}

	root := fmt.Sprintf("%s-%s", project.Name, version)
	filename := root + ".tar.gz"
	outPath := filepath.Join(distDir, filename)

	out, err := os.Create(outPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create archive", goerr.V("path", outPath))
	}
	defer out.Close()

	digest := sha256.New()
	gzw := gzip.NewWriter(io.MultiWriter(out, digest))
	tw := tar.NewWriter(gzw)

	if err := uc.addTree(tw, project.Dir, root); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize tar archive")
	}
	if err := gzw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize gzip stream")
	}
	if err := out.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close archive", goerr.V("path", outPath))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat archive", goerr.V("path", outPath))
	}

	artifact := &model.Artifact{
		Name:     project.Name,
		Version:  version,
		Path:     outPath,
		Filename: filename,
		SHA256:   hex.EncodeToString(digest.Sum(nil)),
		Size:     info.Size(),
	}

	logger.Info("Built source distribution",
		"filename", artifact.Filename,
		"size_bytes", artifact.Size,
		"sha256", artifact.SHA256,
	)

	return artifact, nil
}

// Upload pushes a built artifact to the package index. Uploads are
// irreversible and never retried: a duplicate version, auth failure or
// network error aborts the run.
func (uc *publishUseCase) Upload(ctx context.Context, artifact *model.Artifact) error {
	logger := ctxlog.From(ctx)

	if err := uc.index.Upload(ctx, artifact); err != nil {
		return goerr.Wrap(err, "failed to upload artifact",
			goerr.V("filename", artifact.Filename))
	}

	logger.Info("Uploaded artifact",
		"name", artifact.Name,
		"version", artifact.Version,
		"filename", artifact.Filename,
	)
	return nil
}

func (uc *publishUseCase) addTree(tw *tar.Writer, dir, root string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return goerr.Wrap(err, "failed to walk project directory", goerr.V("path", path))
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve relative path", goerr.V("path", path))
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), ".pyc") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
		}

		header := &tar.Header{
			Name:    root + "/" + filepath.ToSlash(rel),
			Mode:    int64(info.Mode().Perm()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if err := tw.WriteHeader(header); err != nil {
			return goerr.Wrap(err, "failed to write tar header", goerr.V("name", header.Name))
		}

		f, err := os.Open(path)
		if err != nil {
			return goerr.Wrap(err, "failed to open file", goerr.V("path", path))
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return goerr.Wrap(err, "failed to write file to archive", goerr.V("path", path))
		}
		return nil
	})
}
