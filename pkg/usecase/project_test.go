package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func writeProjectDir(t *testing.T, version, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if version != "" {
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte(version), 0644))
	}
	if manifest != "" {
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(manifest), 0644))
	}
	return dir
}

const pep621Manifest = `[project]
name = "tap-powerbi-metadata"
version = "1.2.0"
description = "Singer tap for PowerBI metadata"

[project.scripts]
tap-powerbi-metadata = "tap_powerbi_metadata.tap:cli"
`

const poetryManifest = `[tool.poetry]
name = "tap-powerbi-metadata"
version = "1.2.0"
description = "Singer tap for PowerBI metadata"

[tool.poetry.scripts]
tap-powerbi-metadata = "tap_powerbi_metadata.tap:cli"
`

func TestProject_Load(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewProject()

	t.Run("PEP 621 manifest", func(t *testing.T) {
		dir := writeProjectDir(t, "1.2.0\n", pep621Manifest)
		project := gt.R1(uc.Load(ctx, dir)).NoError(t)
		gt.Value(t, project.Name).Equal("tap-powerbi-metadata")
		gt.Value(t, project.Version).Equal("1.2.0")
		gt.Value(t, project.Scripts["tap-powerbi-metadata"]).Equal("tap_powerbi_metadata.tap:cli")
	})

	t.Run("poetry manifest fallback", func(t *testing.T) {
		dir := writeProjectDir(t, "1.2.0", poetryManifest)
		project := gt.R1(uc.Load(ctx, dir)).NoError(t)
		gt.Value(t, project.Name).Equal("tap-powerbi-metadata")
		gt.Value(t, project.Version).Equal("1.2.0")
	})

	t.Run("version mismatch is fatal", func(t *testing.T) {
		dir := writeProjectDir(t, "1.3.0", pep621Manifest)
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})

	t.Run("missing VERSION file is fatal", func(t *testing.T) {
		dir := writeProjectDir(t, "", pep621Manifest)
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})

	t.Run("empty VERSION file is fatal", func(t *testing.T) {
		dir := writeProjectDir(t, "  \n", pep621Manifest)
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})

	t.Run("missing manifest is fatal", func(t *testing.T) {
		dir := writeProjectDir(t, "1.2.0", "")
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})

	t.Run("missing entry point is fatal", func(t *testing.T) {
		manifest := `[project]
name = "tap-powerbi-metadata"
version = "1.2.0"
`
		dir := writeProjectDir(t, "1.2.0", manifest)
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})

	t.Run("missing package name is fatal", func(t *testing.T) {
		manifest := `[project]
version = "1.2.0"
`
		dir := writeProjectDir(t, "1.2.0", manifest)
		_, err := uc.Load(ctx, dir)
		gt.Error(t, err)
	})
}
