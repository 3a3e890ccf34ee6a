package model

// Checkout is an extracted source snapshot fetched for a webhook-triggered
// run. TempDir is the extraction root and must be removed by the caller;
// ProjectDir points at the single top-level directory inside the archive.
type Checkout struct {
	TempDir    string
	ProjectDir string
	Files      []string
	Size       int64
}
