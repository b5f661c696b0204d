package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimVersion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"with v prefix", "v1.2.3", "1.2.3"},
		{"without v prefix", "1.2.3", "1.2.3"},
		{"empty string", "", ""},
		{"single v", "v", ""},
		{"multiple v", "vv1.2.3", "v1.2.3"},
		{"surrounding whitespace", " 6.4\n", "6.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := trimVersion(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsGreater(t *testing.T) {
	tests := []struct {
		name     string
		v1       string
		v2       string
		expected bool
	}{
		{"v2 greater than v1", "1.2.3", "2.0.0", true},
		{"v1 greater than v2", "2.0.0", "1.2.3", false},
		{"equal versions", "1.2.3", "1.2.3", false},
		{"patch version greater", "1.2.3", "1.2.4", true},
		{"minor version greater", "1.2.3", "1.3.0", true},
		{"major version greater", "1.2.3", "2.0.0", true},

		{"with v prefix v2 greater", "v1.2.3", "v2.0.0", true},
		{"with v prefix v1 greater", "v2.0.0", "v1.2.3", false},

		// major.minor add-on versions
		{"minor only releases", "6.3", "6.4", true},
		{"numeric not lexical", "6.9", "6.10", true},
		{"shorter but greater", "6.3.9", "6.4", true},

		{"incomplete v1", "1.2", "1.2.0", false},
		{"incomplete v2", "1.2.0", "1.2", false},
		{"single part v1", "1", "1.0.0", false},
		{"single part v2", "1.0.0", "1", false},
		{"empty v1", "", "1.0.0", false},
		{"empty v2", "1.0.0", "", false},

		{"zero versions", "0.0.0", "0.0.0", false},
		{"large numbers", "999.999.999", "1000.0.0", true},
		{"mixed formats", "v1.2.3", "2.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsGreater(tt.v1, tt.v2)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsGreaterEdgeCases(t *testing.T) {
	invalidVersions := []string{
		"invalid",
		"abc.2.3",
		"1..3",
		".2.3",
		"1.2.",
	}

	for _, invalid := range invalidVersions {
		t.Run("invalid version: "+invalid, func(t *testing.T) {
			result := IsGreater("1.2.3", invalid)
			assert.False(t, result, "Should return false for invalid version: %s", invalid)
			assert.False(t, Valid(invalid))
		})
	}
}

func TestCompare(t *testing.T) {
	cmp, err := Compare("v6.4", "6.4.0")
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = Compare("6.4", "6.3")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	cmp, err = Compare("6.4.0-rc1", "6.4.0")
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	_, err = Compare("master", "6.4")
	assert.Error(t, err)
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		minimum  string
		expected bool
	}{
		{"equal", "6.0", "6.0.0", true},
		{"above", "6.3", "6.0", true},
		{"below", "5.9", "6.0", false},
		{"empty minimum", "0.1", "", true},
		{"invalid version", "develop", "6.0", false},
		{"invalid minimum", "6.0", "six", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AtLeast(tt.version, tt.minimum))
		})
	}
}

func TestFromTuple(t *testing.T) {
	assert.Equal(t, "6.3.0", FromTuple(6, 3, 0))
	assert.Equal(t, "2", FromTuple(2))
	assert.Equal(t, "", FromTuple())
}
