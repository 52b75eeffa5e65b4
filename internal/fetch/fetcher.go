package fetch

import (
	"cellar/internal/cache"
	"cellar/internal/model"
	"cellar/internal/utils"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoCaskURL marks a cask definition without a download URL.
var ErrNoCaskURL = errors.New("cask has no url")

// Fetcher acquires artifacts for planned jobs.
type Fetcher interface {
	// FetchBottle downloads the platform bottle for a formula. cached
	// reports whether the artifact came from the local cache.
	FetchBottle(ctx context.Context, f *model.Formula, progress Progress) (path string, cached bool, err error)
	// FetchSource downloads the source tarball for a formula.
	FetchSource(ctx context.Context, f *model.Formula, progress Progress) (string, error)
	// FetchCask downloads a cask artifact.
	FetchCask(ctx context.Context, c *model.Cask, progress Progress) (string, error)
}

// HTTPFetcher downloads over the protocol chain and keeps artifacts in
// the cache store.
type HTTPFetcher struct {
	client *Client
	store  *cache.Store
}

// NewHTTPFetcher wires a client to a cache store.
func NewHTTPFetcher(client *Client, store *cache.Store) *HTTPFetcher {
	return &HTTPFetcher{client: client, store: store}
}

func (hf *HTTPFetcher) FetchBottle(ctx context.Context, f *model.Formula, progress Progress) (string, bool, error) {
	bottle, err := f.BottleFor(model.PlatformTag())
	if err != nil {
		return "", false, err
	}
	return hf.fetch(ctx, bottle.URL, bottle.SHA256, progress)
}

func (hf *HTTPFetcher) FetchSource(ctx context.Context, f *model.Formula, progress Progress) (string, error) {
	if f.URL == "" {
		return "", fmt.Errorf("formula %s has no source url", f.Name)
	}
	path, _, err := hf.fetch(ctx, f.URL, f.SHA256, progress)
	return path, err
}

func (hf *HTTPFetcher) FetchCask(ctx context.Context, c *model.Cask, progress Progress) (string, error) {
	if c.URL == nil || c.URL.URL == "" {
		return "", fmt.Errorf("%w: %s", ErrNoCaskURL, c.Token)
	}
	path, _, err := hf.fetch(ctx, c.URL.URL, c.SHA256, progress)
	return path, err
}

// fetch returns the artifact for rawURL, downloading unless a verified
// copy is already cached. A cached file that fails verification is
// evicted and fetched fresh.
func (hf *HTTPFetcher) fetch(ctx context.Context, rawURL, wantSHA string, progress Progress) (string, bool, error) {
	if path, ok := hf.store.Lookup(rawURL); ok {
		err := verifyChecksum(path, wantSHA)
		if err == nil {
			return path, true, nil
		}
		utils.Debug("Evicting cached artifact %s: %v", path, err)
		if err := os.Remove(path); err != nil {
			return "", false, fmt.Errorf("failed to evict cached artifact: %w", err)
		}
	}
	path, err := hf.download(ctx, rawURL, wantSHA, progress)
	return path, false, err
}

func (hf *HTTPFetcher) download(ctx context.Context, rawURL, wantSHA string, progress Progress) (string, error) {
	resp, err := hf.client.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	filename, body, err := deriveFilename(rawURL, resp)
	if err != nil {
		return "", err
	}

	workingPath, err := hf.store.WorkingPath(rawURL, filename)
	if err != nil {
		return "", err
	}
	out, err := os.Create(workingPath)
	if err != nil {
		return "", fmt.Errorf("failed to create working file: %w", err)
	}

	var total int64
	if resp.ContentLength > 0 {
		total = resp.ContentLength
	}
	hasher := sha256.New()
	buf := make([]byte, copyBufferSize(total))
	if _, err := io.CopyBuffer(io.MultiWriter(out, hasher), newCountingReader(body, total, progress), buf); err != nil {
		out.Close()
		hf.store.Discard(workingPath)
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	if err := out.Close(); err != nil {
		hf.store.Discard(workingPath)
		return "", fmt.Errorf("failed to flush working file: %w", err)
	}

	if wantSHA != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, wantSHA) {
			hf.store.Discard(workingPath)
			return "", fmt.Errorf("checksum mismatch for %s: got %s, want %s", rawURL, got, wantSHA)
		}
	}
	return hf.store.Commit(workingPath)
}

func verifyChecksum(path, wantSHA string) error {
	if wantSHA == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, wantSHA) {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, wantSHA)
	}
	return nil
}
