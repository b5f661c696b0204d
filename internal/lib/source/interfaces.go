package source

import (
	"context"
	"fmt"
)

// Kind tells whether a candidate is a branch head or a release tag.
type Kind string

const (
	KindBranch Kind = "branch"
	KindTag    Kind = "tag"
)

// Candidate is one installable ref reported by a VersionSource.
type Candidate struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Kind       Kind   `json:"kind"`
	ArchiveURL string `json:"archive_url"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s (%s)", c.Kind, c.Name, c.Version)
}

// Query names the repository and the branches to look at.
type Query struct {
	Owner       string
	Repository  string
	Branches    []string
	VersionFile string
}

// VersionSource resolves installable candidates from a remote repository host.
type VersionSource interface {
	ListCandidates(ctx context.Context, q Query) ([]Candidate, error)
}

// MockVersionSource is a mock implementation for testing
type MockVersionSource struct {
	ListCandidatesFunc func(ctx context.Context, q Query) ([]Candidate, error)
	Calls              int
}

func (m *MockVersionSource) ListCandidates(ctx context.Context, q Query) ([]Candidate, error) {
	m.Calls++
	if m.ListCandidatesFunc != nil {
		return m.ListCandidatesFunc(ctx, q)
	}
	return []Candidate{}, nil
}

// ArchiveLocator is implemented by sources that can name the archive of any
// ref without listing it first.
type ArchiveLocator interface {
	ArchiveURL(owner, repo, ref string) string
}
