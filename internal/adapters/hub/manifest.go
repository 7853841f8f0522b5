package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tovenja/quench/internal/adapters/ir"
)

// artifactSuffix marks the file a model's artifact is loaded from.
const artifactSuffix = ".qir"

// sha256HexLen is the length of a hex-encoded sha256 digest.
const sha256HexLen = 64

// File is one downloadable piece of a model.
type File struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size,omitempty"`
}

// Manifest maps model IDs to their files.
type Manifest map[string][]File

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every entry for usable names, URLs and checksums.
func (m Manifest) Validate() error {
	for id, files := range m {
		if !safeName(id) {
			return fmt.Errorf("%w: model id %q", ErrBadManifest, id)
		}
		if len(files) == 0 {
			return fmt.Errorf("%w: model %q has no files", ErrBadManifest, id)
		}
		for _, f := range files {
			if !safeName(f.Name) {
				return fmt.Errorf("%w: file name %q", ErrBadManifest, f.Name)
			}
			if f.URL == "" {
				return fmt.Errorf("%w: file %q has no url", ErrBadManifest, f.Name)
			}
			if len(f.SHA256) != sha256HexLen {
				return fmt.Errorf("%w: file %q has a malformed checksum", ErrBadManifest, f.Name)
			}
		}
	}
	return nil
}

// LoadArtifact ensures the model locally and loads its artifact file.
func (p *Provider) LoadArtifact(ctx context.Context, modelID string) (*ir.Artifact, error) {
	dir, err := p.Ensure(ctx, modelID)
	if err != nil {
		return nil, err
	}
	for _, f := range p.manifest[modelID] {
		if strings.HasSuffix(f.Name, artifactSuffix) {
			return ir.Load(filepath.Join(dir, f.Name))
		}
	}
	return nil, fmt.Errorf("%w: model %q", ErrNoArtifact, modelID)
}
