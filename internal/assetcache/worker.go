// Package assetcache serves a fixed manifest of static assets from a local,
// versioned cache and passes everything else through to an upstream server.
package assetcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
)

// ErrInstall is matched by every Install failure.
var ErrInstall = errors.New("cache install failed")

const namePrefix = "timeclock-cache-"

// CacheName embeds the version token in the cache name.
func CacheName(version string) string {
	return namePrefix + version
}

// DefaultManifest is the asset shell cached at install time.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/static/js/bundle.js",
	"/static/js/main.chunk.js",
	"/static/js/0.chunk.js",
	"/static/css/main.chunk.css",
}

// Worker installs, activates and serves one cache generation.
type Worker struct {
	storage  *Storage
	cache    *Cache
	manifest []string
	upstream *url.URL
	client   *http.Client
	proxy    *httputil.ReverseProxy
}

func NewWorker(storage *Storage, version string, upstream *url.URL, manifest []string, client *http.Client) *Worker {
	if client == nil {
		client = http.DefaultClient
	}
	if len(manifest) == 0 {
		manifest = DefaultManifest
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ModifyResponse = func(resp *http.Response) error {
		resp.Header.Set("X-Cache", "MISS")
		return nil
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("upstream fetch failed", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}
	return &Worker{
		storage:  storage,
		cache:    storage.Open(CacheName(version)),
		manifest: manifest,
		upstream: upstream,
		client:   client,
		proxy:    proxy,
	}
}

func (w *Worker) CacheName() string { return w.cache.Name() }

// Install fetches every manifest path from upstream and stores them in
// one step. Any failed fetch aborts and nothing is stored.
func (w *Worker) Install(ctx context.Context) error {
	responses := make([]Response, 0, len(w.manifest))
	for _, p := range w.manifest {
		r, err := w.fetch(ctx, p)
		if err != nil {
			slog.Error("cache install aborted", "cache", w.cache.Name(), "path", p, "error", err)
			return fmt.Errorf("%w: %s: %v", ErrInstall, p, err)
		}
		responses = append(responses, *r)
	}
	if err := w.cache.PutAll(responses); err != nil {
		return fmt.Errorf("%w: %v", ErrInstall, err)
	}
	slog.Info("cache installed", "cache", w.cache.Name(), "assets", len(responses))
	return nil
}

func (w *Worker) fetch(ctx context.Context, path string) (*Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.upstream.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	header := resp.Header.Clone()
	header.Del("Content-Length")
	return &Response{Path: cacheKey(ref), Status: resp.StatusCode, Header: header, Body: body}, nil
}

// Activate deletes every cache generation except this worker's. It returns
// the names it deleted.
func (w *Worker) Activate() ([]string, error) {
	names, err := w.storage.Keys()
	if err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}
	var deleted []string
	for _, n := range names {
		if n == w.cache.Name() {
			continue
		}
		if _, err := w.storage.Delete(n); err != nil {
			return deleted, fmt.Errorf("activate: %w", err)
		}
		deleted = append(deleted, n)
	}
	slog.Info("cache activated", "cache", w.cache.Name(), "evicted", deleted)
	return deleted, nil
}

// ServeHTTP answers from the cache when it holds the request path and
// forwards to upstream otherwise.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		cached, ok, err := w.cache.Match(cacheKey(r.URL))
		if err != nil {
			slog.Warn("cache lookup failed", "path", r.URL.Path, "error", err)
		}
		if ok {
			for k, vs := range cached.Header {
				for _, v := range vs {
					rw.Header().Add(k, v)
				}
			}
			rw.Header().Set("X-Cache", "HIT")
			rw.Header().Set("Content-Length", strconv.Itoa(len(cached.Body)))
			rw.WriteHeader(cached.Status)
			if r.Method == http.MethodGet {
				rw.Write(cached.Body)
			}
			return
		}
	}
	w.proxy.ServeHTTP(rw, r)
}

func cacheKey(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
