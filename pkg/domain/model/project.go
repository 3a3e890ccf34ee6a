package model

// Project is the validated view of the package being released: the VERSION
// file plus the pyproject.toml manifest of the project directory.
type Project struct {
	Dir         string
	Name        string
	Version     string // version from the VERSION file
	Description string
	Scripts     map[string]string // console entry points, command name -> callable
}
