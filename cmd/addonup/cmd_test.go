package addonup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/config"
	"github.com/mistweaverco/addonup/internal/lib/install_state"
	"github.com/mistweaverco/addonup/internal/lib/source"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/mistweaverco/addonup/internal/lib/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branch(name, v string) source.Candidate {
	return source.Candidate{Name: name, Version: v, Kind: source.KindBranch, ArchiveURL: "https://example.com/" + name + ".zip"}
}

type testEnv struct {
	applied  []string
	lockData []byte
}

// setupTest wires every command to an offline session.
func setupTest(t *testing.T, src source.VersionSource) *testEnv {
	t.Helper()
	env := &testEnv{}

	prevFlags := cfg.Flags
	prevSession := newSessionFn
	prevTerm := isTerminalFn
	prevUI := uiShowFn
	prevSelect := selectTargetFn
	prevSpinner := spinnerRunFn
	t.Cleanup(func() {
		cfg.Flags = prevFlags
		newSessionFn = prevSession
		isTerminalFn = prevTerm
		uiShowFn = prevUI
		selectTargetFn = prevSelect
		spinnerRunFn = prevSpinner
		_ = updateCmd.Flags().Set("latest", "false")
		_ = prefsCmd.Flags().Set("target", "")
	})

	isTerminalFn = func() bool { return false }
	spinnerRunFn = func(title string, action func()) error {
		action()
		return nil
	}

	store := install_state.NewWithFileManager(&install_state.MockFileManager{
		FileExistsFunc: func(path string) bool { return env.lockData != nil },
		ReadFileFunc:   func(path string) ([]byte, error) { return env.lockData, nil },
		WriteFileFunc: func(path string, data []byte, perm uint32) error {
			env.lockData = data
			return nil
		},
	})
	inst := &updater.MockInstaller{ApplyFunc: func(ctx context.Context, c source.Candidate, cfg updater.Config) error {
		env.applied = append(env.applied, c.Name)
		return nil
	}}

	newSessionFn = func() (*session, error) {
		info := addon.UVIslandAlignmentTool
		m, err := addon.RegisterUpdater(info, addon.RegisterOptions{
			ModulePath: "/addons/uv_island_alignment_tool",
			Source:     src,
			Installer:  inst,
			Recorder:   store,
		})
		if err != nil {
			return nil, err
		}
		reg := addon.NewRegistry()
		if err := addon.RegisterOperators(reg, m); err != nil {
			return nil, err
		}
		return &session{info: info, manager: m, registry: reg, store: store}, nil
	}
	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func releases() *source.MockVersionSource {
	return listing(branch("master", "6.3"), branch("develop", "6.4"))
}

func listing(c ...source.Candidate) *source.MockVersionSource {
	return &source.MockVersionSource{
		ListCandidatesFunc: func(ctx context.Context, q source.Query) ([]source.Candidate, error) {
			return append([]source.Candidate(nil), c...), nil
		},
	}
}

func offline() *source.MockVersionSource {
	return &source.MockVersionSource{
		ListCandidatesFunc: func(ctx context.Context, q source.Query) ([]source.Candidate, error) {
			return nil, errors.New("offline")
		},
	}
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "addonup", rootCmd.Use)
	for _, name := range []string{"check", "update", "status", "prefs", "operators"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		assert.True(t, found, "Expected subcommand %s not found", name)
	}

	for flag, def := range map[string]string{
		"version":    "false",
		"config":     "",
		"addon-path": "",
		"color":      "auto",
		"output":     "plain",
		"timeout":    "1m0s",
	} {
		f := rootCmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestVersionFlag(t *testing.T) {
	setupTest(t, releases())
	prev := version.VERSION
	version.VERSION = "1.2.3"
	defer func() { version.VERSION = prev }()

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestCheckCommand(t *testing.T) {
	t.Run("plain output", func(t *testing.T) {
		setupTest(t, releases())
		out, err := execute(t, "check")
		require.NoError(t, err)
		assert.Contains(t, out, "Update to the latest release version (version: 6.4)")
		assert.Contains(t, out, "addonup update develop")
		assert.Contains(t, out, "master 6.3 (branch)")
		assert.NotContains(t, out, "**")
	})

	t.Run("json output", func(t *testing.T) {
		setupTest(t, releases())
		out, err := execute(t, "check", "--output", "json")
		require.NoError(t, err)

		var snap updater.Snapshot
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, "checked", snap.StateName)
		assert.Equal(t, "develop", snap.Result.LatestCandidate)
		assert.Len(t, snap.Candidates, 2)
	})

	t.Run("branch without version file", func(t *testing.T) {
		setupTest(t, listing(branch("master", ""), branch("develop", "6.4")))
		out, err := execute(t, "check")
		require.NoError(t, err)
		assert.Contains(t, out, "master no version file (branch)")
		assert.NotContains(t, out, "skipped")
	})

	t.Run("nothing newer", func(t *testing.T) {
		setupTest(t, listing(branch("master", "5.0")))
		out, err := execute(t, "check")
		require.NoError(t, err)
		assert.Contains(t, out, "No updates are available.")
	})

	t.Run("network failure", func(t *testing.T) {
		setupTest(t, offline())
		out, err := execute(t, "check")
		require.Error(t, err)
		assert.Contains(t, out, "offline")
	})

	t.Run("spinner on terminal", func(t *testing.T) {
		setupTest(t, releases())
		isTerminalFn = func() bool { return true }
		var title string
		spinnerRunFn = func(ttl string, action func()) error {
			title = ttl
			action()
			return nil
		}
		_, err := execute(t, "check", "--color", "never")
		require.NoError(t, err)
		assert.Equal(t, "Checking for updates...", title)
	})
}

func TestUpdateCommand(t *testing.T) {
	t.Run("named branch", func(t *testing.T) {
		env := setupTest(t, releases())
		out, err := execute(t, "update", "master")
		require.NoError(t, err)
		assert.Equal(t, []string{"master"}, env.applied)
		assert.Contains(t, out, "Updated to master")
	})

	t.Run("latest", func(t *testing.T) {
		env := setupTest(t, releases())
		_, err := execute(t, "update", "--latest")
		require.NoError(t, err)
		assert.Equal(t, []string{"develop"}, env.applied)
	})

	t.Run("latest with nothing newer", func(t *testing.T) {
		env := setupTest(t, listing(branch("master", "5.0")))
		out, err := execute(t, "update", "--latest")
		require.NoError(t, err)
		assert.Empty(t, env.applied)
		assert.Contains(t, out, "No updates are available.")
	})

	t.Run("unknown branch", func(t *testing.T) {
		env := setupTest(t, releases())
		_, err := execute(t, "update", "feature-x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid branch feature-x")
		assert.Empty(t, env.applied)
	})

	t.Run("invalid target", func(t *testing.T) {
		env := setupTest(t, releases())
		_, err := execute(t, "update", "../etc")
		require.Error(t, err)
		assert.Empty(t, env.applied)
	})

	t.Run("no target without terminal", func(t *testing.T) {
		setupTest(t, releases())
		_, err := execute(t, "update")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no branch given")
	})

	t.Run("interactive selection", func(t *testing.T) {
		env := setupTest(t, releases())
		isTerminalFn = func() bool { return true }
		selectTargetFn = func(m *updater.Manager) (string, error) {
			assert.Equal(t, "develop", m.LatestCandidate())
			return "master", nil
		}
		_, err := execute(t, "update", "--color", "never")
		require.NoError(t, err)
		assert.Equal(t, []string{"master"}, env.applied)
	})

	t.Run("check failure stops update", func(t *testing.T) {
		env := setupTest(t, offline())
		_, err := execute(t, "update", "develop")
		require.Error(t, err)
		assert.Empty(t, env.applied)
	})
}

func TestStatusCommand(t *testing.T) {
	t.Run("nothing installed", func(t *testing.T) {
		setupTest(t, releases())
		out, err := execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "samia-done/UV-Island-Alignment-Tool")
		assert.Contains(t, out, "/addons/uv_island_alignment_tool")
		assert.Contains(t, out, "No update has been installed")
	})

	t.Run("after update", func(t *testing.T) {
		setupTest(t, releases())
		_, err := execute(t, "update", "develop")
		require.NoError(t, err)

		out, err := execute(t, "status", "--output", "json")
		require.NoError(t, err)
		var report statusReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.NotNil(t, report.Installed)
		assert.Equal(t, "develop", report.Installed.Ref)
		assert.Equal(t, "6.4", report.Installed.Version)
		assert.Equal(t, "samia-done", report.Updater.Owner)
	})
}

func TestPrefsCommand(t *testing.T) {
	type shown struct {
		prefs   addon.Preferences
		timeout time.Duration
	}
	capture := func(t *testing.T) *shown {
		got := &shown{}
		uiShowFn = func(ctx context.Context, m *updater.Manager, reg *addon.Registry, prefs addon.Preferences, timeout time.Duration) error {
			got.prefs = prefs
			got.timeout = timeout
			assert.Equal(t, []string{addon.CheckUpdateOperatorID, addon.UpdateOperatorID}, reg.IDs())
			return nil
		}
		return got
	}

	t.Run("prefs with target", func(t *testing.T) {
		setupTest(t, releases())
		got := capture(t)
		_, err := execute(t, "prefs", "--target", "develop")
		require.NoError(t, err)
		assert.Equal(t, "develop", got.prefs.BranchToUpdate)
	})

	t.Run("panel operators get the timeout flag", func(t *testing.T) {
		setupTest(t, releases())
		got := capture(t)
		_, err := execute(t, "prefs", "--timeout", "200ms")
		require.NoError(t, err)
		assert.Equal(t, 200*time.Millisecond, got.timeout)
	})

	t.Run("root opens panel", func(t *testing.T) {
		setupTest(t, releases())
		called := false
		uiShowFn = func(ctx context.Context, m *updater.Manager, reg *addon.Registry, prefs addon.Preferences, timeout time.Duration) error {
			called = true
			assert.Equal(t, config.DefaultTimeout, timeout)
			return nil
		}
		_, err := execute(t)
		require.NoError(t, err)
		assert.True(t, called)
	})
}

func TestOperatorsCommand(t *testing.T) {
	t.Run("plain output", func(t *testing.T) {
		setupTest(t, releases())
		out, err := execute(t, "operators")
		require.NoError(t, err)
		assert.Contains(t, out, addon.CheckUpdateOperatorID+" Check Update: Check Add-on Update")
		assert.Contains(t, out, addon.UpdateOperatorID+" Update: Update Add-on")
	})

	t.Run("json output", func(t *testing.T) {
		setupTest(t, releases())
		out, err := execute(t, "operators", "--output", "json")
		require.NoError(t, err)
		var ops []operatorInfo
		require.NoError(t, json.Unmarshal([]byte(out), &ops))
		require.Len(t, ops, 2)
		assert.Equal(t, addon.CheckUpdateOperatorID, ops[0].ID)
		assert.Equal(t, []string{"REGISTER", "UNDO"}, ops[1].Options)
	})
}

func TestExecuteExitCode(t *testing.T) {
	env := setupTest(t, releases())
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	rootCmd.SetArgs([]string{"update", "feature-x"})
	assert.Equal(t, 1, Execute())
	assert.Empty(t, env.applied)

	rootCmd.SetArgs([]string{"update", "develop"})
	assert.Equal(t, 0, Execute())
	assert.Equal(t, []string{"develop"}, env.applied)
}

func TestBranchCompletion(t *testing.T) {
	setupTest(t, releases())
	out, directive := branchCompletion(&cobra.Command{}, nil, "de")
	assert.Equal(t, []string{"develop"}, out)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	out, _ = branchCompletion(&cobra.Command{}, []string{"develop"}, "")
	assert.Empty(t, out)
}

func TestIcons(t *testing.T) {
	setupTest(t, releases())

	cfg.Flags.Color = config.ColorModeNever
	assert.Equal(t, "[✓]", IconCheck())
	assert.Equal(t, "[✗]", IconClose())
	assert.Equal(t, "[!]", PanelIcon(addon.IconError))
	assert.Equal(t, "[v]", PanelIcon(addon.IconTriaDownBar))
	assert.Empty(t, PanelIcon(addon.IconNone))

	cfg.Flags.Color = config.ColorModeAlways
	assert.Contains(t, IconCheck(), "\033[32m")
	assert.Contains(t, IconRefresh(), "⟳")

	cfg.Flags.Color = config.ColorModeAuto
	assert.Equal(t, "[!]", IconAlert())
}

func TestOutputHelpers(t *testing.T) {
	setupTest(t, releases())
	assert.Equal(t, config.OutputModePlain, GetOutputMode())

	cfg.Flags.Output = config.OutputModeJSON
	assert.True(t, ShouldUseJSONOutput())

	assert.Equal(t, "Title\n\nbold and code", RemoveMarkdownFormatting("# Title\n\n**bold** and `code`"))

	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"a": "b"}))
	assert.Equal(t, "{\n  \"a\": \"b\"\n}\n", buf.String())

	cfg.Flags.Output = config.OutputModeRich
	buf.Reset()
	printMarkdown(&buf, "# Heading\n\nsome text")
	assert.Contains(t, buf.String(), "some text")
}
