// Package hub resolves model artifacts from a remote registry into a local
// cache directory. Files are verified by checksum, fetched concurrently and
// reused on later calls.
package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/tovenja/quench/pkg/logger"
	"github.com/tovenja/quench/pkg/metrics"
)

// Download behavior constants.
const (
	downloadRetries    = 5
	defaultBackoffBase = 1 * time.Second
	defaultTimeout     = 60 * time.Second
	dirPerm            = 0o755
)

// Provider downloads and caches model files listed in a manifest.
type Provider struct {
	baseURL     string
	cacheDir    string
	client      *http.Client
	manifest    Manifest
	backoffBase time.Duration
	log         logger.Logger
}

// New creates a provider. Without options it caches under the user cache
// directory and knows no models.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		client:      &http.Client{Timeout: defaultTimeout},
		manifest:    Manifest{},
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		p.cacheDir = filepath.Join(base, "quench", "models")
	}
	if p.log == nil {
		p.log = logger.Get()
	}
	return p, nil
}

// Ensure makes every file of the model available locally and returns the
// directory holding them. Present files with matching checksums are reused;
// the rest are fetched concurrently.
func (p *Provider) Ensure(ctx context.Context, modelID string) (string, error) {
	files, ok := p.manifest[modelID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrModelNotFound, modelID)
	}
	if !safeName(modelID) {
		return "", fmt.Errorf("%w: model id %q", ErrBadManifest, modelID)
	}
	dir := filepath.Join(p.cacheDir, modelID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		f := f
		g.Go(func() error {
			return p.ensureFile(gctx, dir, f)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return dir, nil
}

// ensureFile reuses a verified cached copy or downloads a fresh one.
func (p *Provider) ensureFile(ctx context.Context, dir string, f File) error {
	if !safeName(f.Name) {
		return fmt.Errorf("%w: file name %q", ErrBadManifest, f.Name)
	}
	dest := filepath.Join(dir, f.Name)
	if p.verified(dest, f) {
		metrics.RecordHubCacheHit()
		p.log.Debug(ctx, "model file cached", logger.String("file", f.Name))
		return nil
	}

	backoff := retry.NewFibonacci(p.backoffBase)
	err := retry.Do(ctx, retry.WithMaxRetries(downloadRetries, backoff), func(ctx context.Context) error {
		err := p.download(ctx, dest, f)
		if err == nil {
			return nil
		}
		if transient(err) {
			metrics.RecordHubRetry()
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		metrics.RecordHubError()
		return err
	}
	return nil
}

// download fetches one file into dest, verifying the checksum before the
// file becomes visible under its final name.
func (p *Provider) download(ctx context.Context, dest string, f File) error {
	target, err := p.resolveURL(f.URL)
	if err != nil {
		return err
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, url: target}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	digest := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, digest), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if f.Size > 0 && written != f.Size {
		return fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrChecksum, f.Name, written, f.Size)
	}
	if sum := hex.EncodeToString(digest.Sum(nil)); !strings.EqualFold(sum, f.SHA256) {
		return fmt.Errorf("%w: %s", ErrChecksum, f.Name)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}

	metrics.RecordHubDownload()
	metrics.RecordHubDownloadBytes(written)
	metrics.RecordHubDownloadLatency(float64(time.Since(start).Milliseconds()))
	p.log.Info(ctx, "model file downloaded",
		logger.String("file", f.Name),
		logger.Any("bytes", written),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// resolveURL joins relative manifest URLs onto the provider's base URL.
func (p *Provider) resolveURL(raw string) (string, error) {
	if strings.Contains(raw, "://") {
		return raw, nil
	}
	if p.baseURL == "" {
		return "", fmt.Errorf("%w: relative url %q without a base url", ErrBadManifest, raw)
	}
	return url.JoinPath(p.baseURL, raw)
}

// verified reports whether dest exists with the expected size and checksum.
func (p *Provider) verified(dest string, f File) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	if f.Size > 0 && info.Size() != f.Size {
		return false
	}
	file, err := os.Open(dest)
	if err != nil {
		return false
	}
	defer func() { _ = file.Close() }()
	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return false
	}
	return strings.EqualFold(hex.EncodeToString(digest.Sum(nil)), f.SHA256)
}

// statusError is an HTTP failure; 5xx counts as transient.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download %s: status %d", e.url, e.code)
}

func (e *statusError) Unwrap() error { return ErrDownloadFailed }

// transient reports whether a download failure is worth retrying.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrChecksum) || errors.Is(err, ErrBadManifest) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	// Anything else is a network-level failure.
	return true
}

// safeName accepts plain path components only.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, "/\\")
}
