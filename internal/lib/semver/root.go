package semver

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

func trimVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}

// Parse parses a dotted numeric version such as "6.4", "v6.4.1" or "6.4.0-rc1".
// Missing components compare as zero, so "6.4" and "6.4.0" are equal.
func Parse(version string) (*goversion.Version, error) {
	trimmed := trimVersion(version)
	if trimmed == "" {
		return nil, fmt.Errorf("empty version string")
	}
	v, err := goversion.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return v, nil
}

// Valid reports whether the string parses as a version.
func Valid(version string) bool {
	_, err := Parse(version)
	return err == nil
}

// Compare returns -1, 0 or 1 when v1 is lower than, equal to or greater than v2.
func Compare(v1, v2 string) (int, error) {
	a, err := Parse(v1)
	if err != nil {
		return 0, err
	}
	b, err := Parse(v2)
	if err != nil {
		return 0, err
	}
	return a.Compare(b), nil
}

// IsGreater compares two version strings and
// returns true if the second argument is greater than the first.
// IsGreater("6.3", "6.4") returns true
// IsGreater("6.4", "6.4.0") returns false
// IsGreater("6.9", "6.10") returns true
// Unparseable input on either side returns false.
func IsGreater(v1, v2 string) bool {
	cmp, err := Compare(v1, v2)
	if err != nil {
		return false
	}
	return cmp < 0
}

// AtLeast reports whether version is greater than or equal to minimum.
// An empty minimum accepts every parseable version.
func AtLeast(version, minimum string) bool {
	v, err := Parse(version)
	if err != nil {
		return false
	}
	if trimVersion(minimum) == "" {
		return true
	}
	m, err := Parse(minimum)
	if err != nil {
		return false
	}
	return v.GreaterThanOrEqual(m)
}

// FromTuple renders a version tuple such as (6, 3, 0) as "6.3.0".
func FromTuple(parts ...int) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strconv.Itoa(p))
	}
	return strings.Join(out, ".")
}
