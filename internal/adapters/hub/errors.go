package hub

import "errors"

var (
	// ErrModelNotFound indicates a model ID absent from the manifest.
	ErrModelNotFound = errors.New("model not found")
	// ErrBadManifest indicates a manifest entry that cannot be used.
	ErrBadManifest = errors.New("bad manifest")
	// ErrDownloadFailed indicates a download the server refused.
	ErrDownloadFailed = errors.New("download failed")
	// ErrChecksum indicates content that does not match its manifest digest.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrNoArtifact indicates a model whose manifest lists no artifact file.
	ErrNoArtifact = errors.New("no artifact in model")
)
