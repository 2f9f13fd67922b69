package scripting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	assert.NoError(t, L.DoString(`
		assert(math.sqrt(4) == 2.0, "math.sqrt failed")
		assert(string.upper("hello") == "HELLO", "string.upper failed")
	`))
}

func TestEvaluator_InstructionLimitExceeded(t *testing.T) {
	e, err := scripting.NewEvaluator(10, "", nil)
	require.NoError(t, err)
	defer e.Close()
	_, err = e.EvalScript(`(function() while true do end end)()`, &subject{maxHP: 1, maxMP: 1}, 0)
	assert.Error(t, err)
}

func TestEvaluator_BudgetIsPerEvaluation(t *testing.T) {
	e, err := scripting.NewEvaluator(200, "", nil)
	require.NoError(t, err)
	defer e.Close()
	s := &subject{hp: 10, maxHP: 20, maxMP: 1}
	for i := 0; i < 100; i++ {
		v, err := e.EvalScript("hp_pct", s, time.Duration(i)*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 50.0, v)
	}
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		e, err := scripting.NewEvaluator(limit, "", nil)
		require.NoError(rt, err)
		defer e.Close()
		if _, err := e.EvalScript(`(function() while true do end end)()`, &subject{}, 0); err == nil {
			rt.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
