package updater

import (
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/mistweaverco/addonup/internal/lib/semver"
	"github.com/mistweaverco/addonup/internal/lib/source"
)

// CheckResult is the outcome of the last update check.
// A zero CheckResult (Checked false) carries nothing else.
type CheckResult struct {
	Checked         bool      `json:"checked"`
	LatestVersion   string    `json:"latest_version"`
	LatestCandidate string    `json:"latest_candidate"`
	Error           string    `json:"error,omitempty"`
	Info            string    `json:"info,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// HasCandidate reports whether the check found something to install.
func (r CheckResult) HasCandidate() bool {
	return r.Checked && r.LatestVersion != ""
}

// Checker picks the best update among the candidates a VersionSource reports.
type Checker struct {
	now func() time.Time
}

func NewChecker() *Checker {
	return &Checker{now: time.Now}
}

func (c *Checker) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

type ranked struct {
	candidate source.Candidate
	version   *goversion.Version
	order     int
}

// Check filters out candidates below the minimum release version or not
// newer than the installed version, then selects the highest version. Equal
// versions keep branch declaration order, branches before tags.
func (c *Checker) Check(candidates []source.Candidate, cfg Config) CheckResult {
	result := CheckResult{Checked: true, CheckedAt: c.clock()}

	branchOrder := make(map[string]int, len(cfg.Branches))
	for i, b := range cfg.Branches {
		branchOrder[b] = i
	}

	var best *ranked
	skipped := 0
	for i, cand := range candidates {
		// Unversioned branches can be installed by name but never rank.
		if cand.Version == "" {
			continue
		}
		v, err := semver.Parse(cand.Version)
		if err != nil {
			Logger.Debug("Skipping candidate with unparseable version", "candidate", cand.Name, "version", cand.Version)
			skipped++
			continue
		}
		if !semver.AtLeast(cand.Version, cfg.MinReleaseVersion) {
			continue
		}
		if cfg.CurrentVersion != "" && !semver.IsGreater(cfg.CurrentVersion, cand.Version) {
			continue
		}

		r := &ranked{candidate: cand, version: v, order: rankOrder(cand, i, branchOrder, len(cfg.Branches))}
		if best == nil || better(r, best) {
			best = r
		}
	}

	if best != nil {
		result.LatestVersion = best.candidate.Version
		result.LatestCandidate = best.candidate.Name
	}
	if skipped > 0 {
		result.Info = fmt.Sprintf("%d candidates skipped", skipped)
	}
	return result
}

// rankOrder places configured branches first in declaration order, then
// everything else in listing order.
func rankOrder(c source.Candidate, idx int, branchOrder map[string]int, branches int) int {
	if c.Kind == source.KindBranch {
		if pos, ok := branchOrder[c.Name]; ok {
			return pos
		}
	}
	return branches + idx
}

func better(a, b *ranked) bool {
	if cmp := a.version.Compare(b.version); cmp != 0 {
		return cmp > 0
	}
	if a.order != b.order {
		return a.order < b.order
	}
	return a.candidate.Name < b.candidate.Name
}
