package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

type sourceUseCase struct {
	githubClient interfaces.GitHubClient
}

// NewSource creates the source fetcher for webhook-triggered runs.
func NewSource(githubClient interfaces.GitHubClient) interfaces.SourceUseCase {
	return &sourceUseCase{
		githubClient: githubClient,
	}
}

// Fetch downloads the repository zipball at ref and extracts it to a
// temporary directory. The caller owns the returned temp directory.
func (uc *sourceUseCase) Fetch(ctx context.Context, owner, repo, ref string) (*model.Checkout, error) {
	logger := ctxlog.From(ctx)

	zipData, err := uc.githubClient.DownloadZipball(ctx, owner, repo, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("ref", ref))
	}

	logger.Info("Downloaded zipball",
		"size_bytes", len(zipData),
		"owner", owner,
		"repo", repo,
		"ref", ref,
	)

	checkout, err := uc.extractZip(zipData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract zipball",
			goerr.V("owner", owner),
			goerr.V("repo", repo))
	}

	logger.Info("Extracted source snapshot",
		"temp_dir", checkout.TempDir,
		"project_dir", checkout.ProjectDir,
		"file_count", len(checkout.Files),
		"total_size_bytes", checkout.Size,
	)

	return checkout, nil
}

// extractZip extracts ZIP data to a temporary directory. GitHub zipballs
// carry a single top-level directory, which becomes the project directory.
func (uc *sourceUseCase) extractZip(zipData []byte) (*model.Checkout, error) {
	tempDir, err := os.MkdirTemp("", "tap-powerbi-metadata-src-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory")
	}

	if err := os.Chmod(tempDir, 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to set directory permissions",
			goerr.V("temp_dir", tempDir))
	}

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open zip archive")
	}

	var extractedFiles []string
	var totalSize int64
	topLevel := ""

	for _, file := range zipReader.File {
		if err := extractFile(file, tempDir); err != nil {
			return nil, err
		}

		if topLevel == "" {
			topLevel, _, _ = strings.Cut(file.Name, "/")
		}
		if !file.FileInfo().IsDir() {
			extractedFiles = append(extractedFiles, file.Name)
			totalSize += int64(file.UncompressedSize64)
		}
	}

	projectDir := tempDir
	if topLevel != "" {
		projectDir = filepath.Join(tempDir, topLevel)
	}

	return &model.Checkout{
		TempDir:    tempDir,
		ProjectDir: projectDir,
		Files:      extractedFiles,
		Size:       totalSize,
	}, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path detected",
			goerr.V("file", file.Name),
			goerr.V("dest", destPath))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories",
			goerr.V("dir", filepath.Dir(destPath)))
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode())
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}
