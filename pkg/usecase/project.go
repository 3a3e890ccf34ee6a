package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/interfaces"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
)

// pyprojectManifest covers both the PEP 621 [project] table and the classic
// [tool.poetry] layout. [project] wins when both are present.
type pyprojectManifest struct {
	Project struct {
		Name        string            `toml:"name"`
		Version     string            `toml:"version"`
		Description string            `toml:"description"`
		Scripts     map[string]string `toml:"scripts"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name        string            `toml:"name"`
			Version     string            `toml:"version"`
			Description string            `toml:"description"`
			Scripts     map[string]string `toml:"scripts"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type projectUseCase struct{}

// NewProject creates the project loader.
func NewProject() interfaces.ProjectUseCase {
	return &projectUseCase{}
}

// Load reads the VERSION file and pyproject.toml manifest from dir and
// validates that they agree on what is being published.
func (uc *projectUseCase) Load(ctx context.Context, dir string) (*model.Project, error) {
	logger := ctxlog.From(ctx)

	version, err := readVersionFile(filepath.Join(dir, "VERSION"))
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(dir, "pyproject.toml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read manifest", goerr.V("path", manifestPath))
	}

	var manifest pyprojectManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest", goerr.V("path", manifestPath))
	}

	project := &model.Project{
		Dir:         dir,
		Version:     version,
		Name:        manifest.Project.Name,
		Description: manifest.Project.Description,
		Scripts:     manifest.Project.Scripts,
	}
	manifestVersion := manifest.Project.Version
	if project.Name == "" {
		project.Name = manifest.Tool.Poetry.Name
		project.Description = manifest.Tool.Poetry.Description
		project.Scripts = manifest.Tool.Poetry.Scripts
		manifestVersion = manifest.Tool.Poetry.Version
	}

	if project.Name == "" {
		return nil, goerr.New("manifest declares no package name", goerr.V("path", manifestPath))
	}
	if manifestVersion != version {
		return nil, goerr.New("VERSION file and manifest version disagree",
			goerr.V("version_file", version),
			goerr.V("manifest", manifestVersion))
	}
	if _, ok := project.Scripts[types.AppName]; !ok {
		return nil, goerr.New("manifest declares no console entry point",
			goerr.V("expected", types.AppName))
	}

	logger.Info("Loaded project",
		"name", project.Name,
		"version", project.Version,
		"dir", dir,
	)

	return project, nil
}

func readVersionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read VERSION file", goerr.V("path", path))
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", goerr.New("VERSION file is empty", goerr.V("path", path))
	}
	return version, nil
}
