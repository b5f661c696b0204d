package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	apperrors "github.com/mistweaverco/addonup/internal/errors"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/log"
	"github.com/mistweaverco/addonup/internal/lib/semver"
	"github.com/mistweaverco/addonup/internal/lib/version"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

var Logger = log.NewLogger()

const (
	DefaultRawBaseURL     = "https://raw.githubusercontent.com"
	DefaultAPIBaseURL     = "https://api.github.com"
	DefaultArchiveBaseURL = "https://github.com"
	DefaultVersionFile    = "VERSION"
	DefaultCacheTTL       = 5 * time.Minute
	DefaultMaxRetries     = 3
	DefaultConcurrency    = 4

	// version files and tag listings are tiny; anything bigger is not ours
	maxBodySize = 1 << 20
)

// ErrBranchNotFound is returned when a branch has no version file.
var ErrBranchNotFound = errors.New("branch not found")

type githubTag struct {
	Name string `json:"name"`
}

// GitHubSource lists branch heads and release tags of a GitHub repository.
type GitHubSource struct {
	rawBaseURL     string
	apiBaseURL     string
	archiveBaseURL string
	client         files.HTTPClient
	token          string
	tags           bool
	maxRetries     uint64
	concurrency    int
	newBackOff     func() backoff.BackOff
	cache          *gocache.Cache
}

// Option configures a GitHubSource.
type Option func(*GitHubSource)

// WithBaseURLs points the source at other hosts, e.g. an httptest server.
func WithBaseURLs(raw, api, archive string) Option {
	return func(s *GitHubSource) {
		s.rawBaseURL = strings.TrimRight(raw, "/")
		s.apiBaseURL = strings.TrimRight(api, "/")
		s.archiveBaseURL = strings.TrimRight(archive, "/")
	}
}

func WithHTTPClient(client files.HTTPClient) Option {
	return func(s *GitHubSource) { s.client = client }
}

// WithToken sends token as a bearer token on API and raw requests.
func WithToken(token string) Option {
	return func(s *GitHubSource) { s.token = strings.TrimSpace(token) }
}

// WithTags toggles listing release tags next to branches.
func WithTags(enabled bool) Option {
	return func(s *GitHubSource) { s.tags = enabled }
}

func WithMaxRetries(n uint64) Option {
	return func(s *GitHubSource) { s.maxRetries = n }
}

func WithConcurrency(n int) Option {
	return func(s *GitHubSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCacheTTL sets how long response validators are kept. Zero disables
// conditional requests.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *GitHubSource) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithBackOff replaces the retry policy.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *GitHubSource) { s.newBackOff = fn }
}

// NewGitHubSource creates a source talking to github.com.
func NewGitHubSource(opts ...Option) *GitHubSource {
	s := &GitHubSource{
		rawBaseURL:     DefaultRawBaseURL,
		apiBaseURL:     DefaultAPIBaseURL,
		archiveBaseURL: DefaultArchiveBaseURL,
		client:         files.Client(),
		tags:           true,
		maxRetries:     DefaultMaxRetries,
		concurrency:    DefaultConcurrency,
		newBackOff:     defaultBackOff,
		cache:          gocache.New(DefaultCacheTTL, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          1.5,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
}

// ArchiveURL returns the zipball location of ref.
func (s *GitHubSource) ArchiveURL(owner, repo, ref string) string {
	return fmt.Sprintf("%s/%s/%s/archive/%s.zip", s.archiveBaseURL, owner, repo, url.PathEscape(ref))
}

// ListCandidates returns one candidate per configured branch, in declaration
// order, followed by the release tags sorted by name. Every call asks the
// remote; cached responses are only reused when it answers 304.
func (s *GitHubSource) ListCandidates(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Owner == "" || q.Repository == "" {
		return nil, apperrors.New(apperrors.CodeConfiguration, "owner and repository are required", nil)
	}
	branches, err := s.listBranches(ctx, q)
	if err != nil {
		return nil, err
	}
	candidates := branches

	if s.tags {
		tags, err := s.listTags(ctx, q)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, tags...)
	}
	return candidates, nil
}

func (s *GitHubSource) listBranches(ctx context.Context, q Query) ([]Candidate, error) {
	versionFile := q.VersionFile
	if versionFile == "" {
		versionFile = DefaultVersionFile
	}

	found := make([]Candidate, len(q.Branches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, branch := range q.Branches {
		i, branch := i, branch
		g.Go(func() error {
			rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", s.rawBaseURL, q.Owner, q.Repository, url.PathEscape(branch), versionFile)
			body, err := s.get(gctx, rawURL)
			switch {
			case errors.Is(err, ErrBranchNotFound):
				// still installable by name, just never ranked
				Logger.Warn("Branch has no version file", "branch", branch, "url", rawURL)
			case err != nil:
				return apperrors.New(apperrors.CodeNetwork, fmt.Sprintf("failed to fetch version of branch %s", branch), err)
			}
			found[i] = Candidate{
				Name:       branch,
				Version:    strings.TrimSpace(string(body)),
				Kind:       KindBranch,
				ArchiveURL: s.ArchiveURL(q.Owner, q.Repository, branch),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *GitHubSource) listTags(ctx context.Context, q Query) ([]Candidate, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/tags", s.apiBaseURL, q.Owner, q.Repository)
	body, err := s.get(ctx, apiURL)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			return []Candidate{}, nil
		}
		return nil, apperrors.New(apperrors.CodeNetwork, "failed to list release tags", err)
	}

	var tags []githubTag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, apperrors.New(apperrors.CodeNetwork, "failed to parse release tags", err)
	}

	out := make([]Candidate, 0, len(tags))
	for _, tag := range tags {
		if !semver.Valid(tag.Name) {
			Logger.Debug("Ignoring non-version tag", "tag", tag.Name)
			continue
		}
		out = append(out, Candidate{
			Name:       tag.Name,
			Version:    tag.Name,
			Kind:       KindTag,
			ArchiveURL: s.ArchiveURL(q.Owner, q.Repository, tag.Name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// cachedResponse is a body kept for revalidation with If-None-Match.
type cachedResponse struct {
	etag string
	body []byte
}

func (s *GitHubSource) cached(rawURL string) (cachedResponse, bool) {
	if s.cache == nil {
		return cachedResponse{}, false
	}
	v, ok := s.cache.Get(rawURL)
	if !ok {
		return cachedResponse{}, false
	}
	return v.(cachedResponse), true
}

// get fetches url, retrying transport errors and retryable statuses. When an
// earlier response carried an ETag the request is conditional, and a 304
// answer reuses the stored body.
func (s *GitHubSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", version.UserAgent())
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		prev, hasPrev := s.cached(rawURL)
		if hasPrev {
			req.Header.Set("If-None-Match", prev.etag)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		switch {
		case resp.StatusCode == http.StatusNotModified && hasPrev:
			Logger.Debug("Remote unchanged, using cached response", "url", rawURL)
			body = append([]byte(nil), prev.body...)
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrBranchNotFound)
		case resp.StatusCode != http.StatusOK:
			statusErr := &files.StatusError{URL: rawURL, StatusCode: resp.StatusCode}
			if statusErr.Temporary() {
				return statusErr
			}
			if resp.StatusCode == http.StatusForbidden {
				return backoff.Permanent(fmt.Errorf("%w (rate limited? set GITHUB_TOKEN)", statusErr))
			}
			return backoff.Permanent(statusErr)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return err
		}
		if etag := resp.Header.Get("ETag"); etag != "" && s.cache != nil {
			s.cache.Set(rawURL, cachedResponse{etag: etag, body: append([]byte(nil), body...)}, gocache.DefaultExpiration)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	err := backoff.RetryNotify(operation, policy, func(err error, d time.Duration) {
		Logger.Warn("Request failed, retrying", "url", rawURL, "in", d, "error", err)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
