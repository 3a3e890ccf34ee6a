package model

// Artifact describes a built source distribution ready for upload.
type Artifact struct {
	Name     string // package name
	Version  string // exact version string
	Path     string // local path of the built archive
	Filename string // e.g. tap-powerbi-metadata-1.2.0.tar.gz
	SHA256   string // hex digest of the archive
	Size     int64  // archive size in bytes
}
