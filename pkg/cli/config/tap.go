package config

import (
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/model"
)

// Tap holds the Singer file arguments: config, catalog and state.
type Tap struct {
	ConfigPath  string
	CatalogPath string
	StatePath   string
}

// Flags returns CLI flags for the tap file arguments. requireConfig marks
// the --config flag required, which sync does and discover does not.
func (c *Tap) Flags(requireConfig bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the tap config JSON file",
			Required:    requireConfig,
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "Path to a catalog JSON file restricting the sync",
			Destination: &c.CatalogPath,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_CATALOG"),
		},
		&cli.StringFlag{
			Name:        "state",
			Usage:       "Path to a state JSON file to resume from",
			Destination: &c.StatePath,
			Sources:     cli.EnvVars("TAP_POWERBI_METADATA_STATE"),
		},
	}
}

// LoadConfig reads and validates the tap config file.
func (c *Tap) LoadConfig() (*model.TapConfig, error) {
	var cfg model.TapConfig
	if err := readJSONFile(c.ConfigPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadCatalog reads the catalog file. It returns nil when no catalog is
// configured, which selects every stream.
func (c *Tap) LoadCatalog() (*model.Catalog, error) {
	if c.CatalogPath == "" {
		return nil, nil
	}
	var catalog model.Catalog
	if err := readJSONFile(c.CatalogPath, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// LoadState reads the state file. It returns an empty state when no state
// file is configured.
func (c *Tap) LoadState() (*model.State, error) {
	if c.StatePath == "" {
		return model.NewState(), nil
	}
	var state model.State
	if err := readJSONFile(c.StatePath, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(err, "failed to parse JSON file", goerr.V("path", path))
	}
	return nil
}
