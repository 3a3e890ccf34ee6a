package types

const (
	// AppName is the canonical package name, shared by the binary, the
	// published sdist and the console entry point.
	AppName = "tap-powerbi-metadata"

	// Version must match the VERSION file at the repository root.
	Version = "0.6.0"
)
