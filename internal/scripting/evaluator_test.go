package scripting_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/scripting"
)

type subject struct {
	hp, maxHP, mp, maxMP float64
	buffs                map[string]bool
	cooldowns            map[string]time.Duration
	stunned              bool
}

func (s *subject) UnitID() string          { return "p1" }
func (s *subject) Alive() bool             { return s.hp > 0 }
func (s *subject) HP() float64             { return s.hp }
func (s *subject) MaxHP() float64          { return s.maxHP }
func (s *subject) MP() float64             { return s.mp }
func (s *subject) MaxMP() float64          { return s.maxMP }
func (s *subject) HasBuff(src string) bool { return s.buffs[src] }
func (s *subject) Stunned(time.Duration) bool {
	return s.stunned
}
func (s *subject) CooldownRemaining(hrid string, _ time.Duration) (time.Duration, bool) {
	d, ok := s.cooldowns[hrid]
	return d, ok
}

var _ trigger.Subject = (*subject)(nil)

func newEvaluator(t *testing.T, libDir string) *scripting.Evaluator {
	t.Helper()
	e, err := scripting.NewEvaluator(0, libDir, nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEvaluator_Globals(t *testing.T) {
	e := newEvaluator(t, "")
	s := &subject{hp: 30, maxHP: 120, mp: 10, maxMP: 40}

	cases := map[string]float64{
		"hp":                          30,
		"max_hp":                      120,
		"mp_pct":                      25,
		"hp_pct < 50":                 1,
		"mp > 20":                     0,
		"time":                        90,
		"max_hp - hp":                 90,
		"alive and not stunned":       1,
		"hp_pct < 50 and mp_pct < 50": 1,
	}
	for expr, want := range cases {
		got, err := e.EvalScript(expr, s, 90*time.Second)
		require.NoError(t, err, expr)
		assert.Equal(t, want, got, expr)
	}
}

func TestEvaluator_Functions(t *testing.T) {
	e := newEvaluator(t, "")
	s := &subject{
		hp: 1, maxHP: 1, maxMP: 1,
		buffs:     map[string]bool{"/items/coffee": true},
		cooldowns: map[string]time.Duration{"/abilities/slam": 2500 * time.Millisecond},
	}
	v, err := e.EvalScript(`has_buff("/items/coffee")`, s, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = e.EvalScript(`cooldown("/abilities/slam")`, s, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = e.EvalScript(`cooldown("/abilities/none") == nil`, s, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestEvaluator_Errors(t *testing.T) {
	e := newEvaluator(t, "")
	s := &subject{hp: 1, maxHP: 1}

	_, err := e.EvalScript("hp <", s, 0)
	assert.Error(t, err, "syntax error")

	_, err = e.EvalScript(`"text"`, s, 0)
	assert.ErrorIs(t, err, scripting.ErrNotNumeric)

	_, err = e.EvalScript(`error("boom")`, s, 0)
	assert.Error(t, err)

	v, err := e.EvalScript("nil", s, 0)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEvaluator_LibraryHelpers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10_helpers.lua"), []byte(`
		function low(threshold)
			return hp_pct < threshold
		end
	`), 0o644))
	e := newEvaluator(t, dir)

	v, err := e.EvalScript("low(50)", &subject{hp: 10, maxHP: 100}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = e.EvalScript("low(5)", &subject{hp: 10, maxHP: 100}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestEvaluator_BadLibraryDir(t *testing.T) {
	_, err := scripting.NewEvaluator(0, filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))
	_, err = scripting.NewEvaluator(0, dir, nil)
	assert.Error(t, err)
}

func TestEvaluator_DrivesScriptTrigger(t *testing.T) {
	e := newEvaluator(t, "")
	tr := trigger.Trigger{
		Dependency: trigger.DependencySelf, Condition: trigger.ConditionScript,
		Comparator: trigger.GreaterThan, Value: 0, Param: "hp_pct < 50",
	}
	ok, err := trigger.Evaluate(tr, trigger.Env{Self: &subject{hp: 20, maxHP: 100}, Scripts: e})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = trigger.Evaluate(tr, trigger.Env{Self: &subject{hp: 80, maxHP: 100}, Scripts: e})
	require.NoError(t, err)
	assert.False(t, ok)
}
