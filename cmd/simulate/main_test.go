package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/config"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/combat"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/encounter"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

var repoRoot = filepath.Join("..", "..")

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	cfg.Data.Dir = filepath.Join(repoRoot, "content")
	cfg.Simulation.ScriptDir = filepath.Join(repoRoot, "content", "scripts")
	cfg.Simulation.Timeout = time.Minute
	return cfg
}

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{
		"-party", "p.yaml", "-encounter", "a.yaml, b.yaml", "-hours", "2", "-seed", "9", "-mode", "stochastic",
	})
	require.NoError(t, err)
	assert.Equal(t, "p.yaml", f.party)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, f.encounters)
	assert.Equal(t, 2.0, f.hours)
	assert.Equal(t, uint64(9), f.seed)

	_, err = parseFlags([]string{"-party", "p.yaml"})
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := testConfig(t)
	applyOverrides(&cfg, flags{data: "/data", seed: 7, mode: "stochastic", persist: true})
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, "stochastic", cfg.Simulation.Mode)
	assert.True(t, cfg.Database.Enabled)
}

func TestResolveHours(t *testing.T) {
	sim := config.SimulationConfig{Hours: 24}
	assert.Equal(t, 3.0, resolveHours(3, encounter.Config{Hours: 12}, sim))
	assert.Equal(t, 12.0, resolveHours(0, encounter.Config{Hours: 12}, sim))
	assert.Equal(t, 24.0, resolveHours(0, encounter.Config{}, sim))
}

func TestRun_SampleContent(t *testing.T) {
	cfg := testConfig(t)
	f := flags{
		party:      filepath.Join(repoRoot, "examples", "party.yaml"),
		encounters: []string{filepath.Join(repoRoot, "examples", "farmland.yaml")},
		hours:      0.5,
	}
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, f, &out, zap.NewNop()))

	var s combat.Summary
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, "/encounters/farmland", s.Target)
	assert.Equal(t, 0.5, s.Hours)
	require.Len(t, s.Players, 2)
	assert.Equal(t, "tank", s.Players[0].ID)
	assert.Greater(t, s.EncountersPerHour, 0.0)
	assert.Greater(t, s.Players[1].TotalExperiencePerHour, 0.0)
}

func TestRun_Batch(t *testing.T) {
	cfg := testConfig(t)
	f := flags{
		party: filepath.Join(repoRoot, "examples", "party.yaml"),
		encounters: []string{
			filepath.Join(repoRoot, "examples", "farmland.yaml"),
			filepath.Join(repoRoot, "examples", "pirate_cove.yaml"),
		},
		hours: 0.25,
	}
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, f, &out, zap.NewNop()))
	assert.Equal(t, 1, strings.Count(out.String(), "\n---\n"), "summaries form one YAML stream")

	dec := yaml.NewDecoder(&out)
	var targets []string
	for {
		var s combat.Summary
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		targets = append(targets, s.Target)
	}
	assert.Equal(t, []string{"/encounters/farmland", "/dungeons/pirate_cove"}, targets)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(simerr.Wrap(simerr.CodeCancelled, simerr.PhaseRun, "x", context.Canceled)))
	assert.Equal(t, 1, exitCode(simerr.New(simerr.CodeDataLoadFailed, simerr.PhaseLoad, "x", "missing")))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestSimulate_ReturnsExitCode(t *testing.T) {
	assert.Equal(t, 2, simulate([]string{"-party", "p.yaml"}))
	assert.Equal(t, 1, simulate([]string{
		"-party", "p.yaml", "-encounter", "e.yaml", "-data", filepath.Join(t.TempDir(), "missing"),
	}))
}

func TestRun_MissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dir = filepath.Join(t.TempDir(), "missing")
	err := run(context.Background(), cfg, flags{party: "x", encounters: []string{"y"}}, &bytes.Buffer{}, zap.NewNop())
	assert.True(t, simerr.IsCode(err, simerr.CodeDataLoadFailed))
}
