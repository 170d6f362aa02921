package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/smartstudy/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// Source resolves a manifest-relative path to file contents.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Fetcher produces the raw question files for a fresh load.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]RawSource, []models.SkippedSource, error)
}

// ── FSSource ────────────────────────────────────────────

type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Fetch(_ context.Context, name string) ([]byte, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("invalid path %q", name)
	}
	return fs.ReadFile(s.fsys, clean)
}

// ── HTTPSource ──────────────────────────────────────────

type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPSource{base: u, client: &http.Client{Timeout: timeout}}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", name, err)
	}
	target := s.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ── Loader ──────────────────────────────────────────────

// Loader reads the manifest and then every listed file in parallel. A
// failing file becomes a SkippedSource; only a failing manifest fails the
// whole load.
type Loader struct {
	source       Source
	manifestPath string
	parallelism  int
}

func NewLoader(source Source, manifestPath string) *Loader {
	return &Loader{source: source, manifestPath: manifestPath, parallelism: 8}
}

func (l *Loader) Manifest(ctx context.Context) ([]string, error) {
	data, err := l.source.Fetch(ctx, l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("manifest %s is not a JSON array of paths: %w", l.manifestPath, err)
	}
	return paths, nil
}

func (l *Loader) FetchAll(ctx context.Context) ([]RawSource, []models.SkippedSource, error) {
	paths, err := l.Manifest(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[questions] manifest lists %d files", len(paths))

	results := make([]RawSource, len(paths))
	failures := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, p := range paths {
		g.Go(func() error {
			data, err := l.source.Fetch(gctx, p)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = RawSource{Path: p, Data: data}
			return nil
		})
	}
	// Workers never return an error; per-file failures are collected above.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var sources []RawSource
	var skipped []models.SkippedSource
	for i, p := range paths {
		if failures[i] != nil {
			log.Printf("[questions] %s failed: %v", p, failures[i])
			skipped = append(skipped, models.SkippedSource{Path: p, Error: failures[i].Error()})
			continue
		}
		sources = append(sources, results[i])
	}
	return sources, skipped, nil
}
