// Package fetch retrieves raw filter lists with bounded concurrency, retry
// and a TTL disk cache. Every source resolves to a Result; failures surface
// as absent content, never as errors.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the minimal logging surface the fetcher needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Source names one filter list to retrieve, either remote or local.
type Source struct {
	Name string
	URL  string
	Path string
}

// Result is the outcome of one fetch. OK is false when no content could be
// obtained; downstream treats that as "skip this list and proceed".
type Result struct {
	Name    string
	Content string
	OK      bool
	Source  string
}

// cacheMeta stores cached URL data provenance.
type cacheMeta struct {
	FetchedAt time.Time `json:"fetched_at"`
}

// definitive client errors are never retried
var errClientStatus = errors.New("definitive client error")

// Fetcher downloads filter lists. Concurrency is bounded by a fixed-size
// permit pool; each URL gets maxRetries+1 attempts with exponential backoff.
type Fetcher struct {
	client      *http.Client
	cacheDir    string
	cacheTTL    time.Duration
	maxParallel int
	maxRetries  int
	backoff     time.Duration
	logger      Logger
}

// New creates a Fetcher with a default HTTP client. A nil logger falls back
// to the standard logger.
func New(cacheDir string, cacheTTL time.Duration, maxParallel, maxRetries int, logger Logger) *Fetcher {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		cacheDir:    cacheDir,
		cacheTTL:    cacheTTL,
		maxParallel: maxParallel,
		maxRetries:  maxRetries,
		backoff:     time.Second,
		logger:      logger,
	}
}

// FetchAll resolves every source to a Result, preserving input order.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []Result {
	results := make([]Result, len(sources))
	permits := make(chan struct{}, f.maxParallel)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			permits <- struct{}{}
			defer func() { <-permits }()
			results[i] = f.fetchOne(ctx, src)
		}(i, src)
	}
	wg.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) Result {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			f.logger.Printf("fetch: reading local list '%s': %v", src.Name, err)
			return Result{Name: src.Name, Source: src.Path}
		}
		return Result{Name: src.Name, Content: string(data), OK: true, Source: src.Path}
	}
	return f.fetchURL(ctx, src.Name, src.URL)
}

func (f *Fetcher) fetchURL(ctx context.Context, name, url string) Result {
	contentFile, metaFile := f.cachePaths(url)

	if content, ok := f.cachedFresh(contentFile, metaFile); ok {
		f.logger.Printf("fetch: using cached content for '%s'", name)
		return Result{Name: name, Content: content, OK: true, Source: url}
	}

	content, err := f.download(ctx, name, url)
	if err == nil {
		f.writeCache(contentFile, metaFile, content)
		return Result{Name: name, Content: content, OK: true, Source: url}
	}
	f.logger.Printf("fetch: '%s' failed: %v", name, err)

	// Stale cache beats no content at all.
	if data, readErr := os.ReadFile(contentFile); readErr == nil {
		f.logger.Printf("fetch: falling back to stale cache for '%s'", name)
		return Result{Name: name, Content: string(data), OK: true, Source: url}
	}
	return Result{Name: name, Source: url}
}

func (f *Fetcher) download(ctx context.Context, name, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.backoff << attempt):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		content, err := f.attempt(ctx, url)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if errors.Is(err, errClientStatus) {
			return "", err
		}
		f.logger.Printf("fetch: '%s' attempt %d/%d failed: %v", name, attempt+1, f.maxRetries+1, err)
	}
	return "", fmt.Errorf("all %d attempts failed: %w", f.maxRetries+1, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", errClientStatus, resp.Status)
	default:
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *Fetcher) cachePaths(url string) (contentFile, metaFile string) {
	hash := sha256.Sum256([]byte(url))
	key := hex.EncodeToString(hash[:8])
	return filepath.Join(f.cacheDir, key+".list.txt"), filepath.Join(f.cacheDir, key+".meta.json")
}

func (f *Fetcher) cachedFresh(contentFile, metaFile string) (string, bool) {
	data, err := os.ReadFile(metaFile)
	if err != nil {
		return "", false
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", false
	}
	if f.cacheTTL <= 0 || time.Since(meta.FetchedAt) > f.cacheTTL {
		return "", false
	}
	content, err := os.ReadFile(contentFile)
	if err != nil {
		return "", false
	}
	return string(content), true
}

func (f *Fetcher) writeCache(contentFile, metaFile, content string) {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		f.logger.Printf("fetch: creating cache dir: %v", err)
		return
	}
	if err := os.WriteFile(contentFile, []byte(content), 0644); err != nil {
		f.logger.Printf("fetch: writing cache file: %v", err)
		return
	}
	data, err := json.MarshalIndent(cacheMeta{FetchedAt: time.Now()}, "", "  ")
	if err == nil {
		err = os.WriteFile(metaFile, data, 0644)
	}
	if err != nil {
		f.logger.Printf("fetch: writing cache meta: %v", err)
	}
}
