package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// ErrNotNumeric is returned when a script yields something other than a
// number, a boolean or nil.
var ErrNotNumeric = errors.New("script result is not a number or boolean")

// Evaluator owns one sandboxed VM and evaluates trigger expressions against
// the subject unit. Each expression is compiled once.
//
// An Evaluator is not safe for concurrent use; create one per run.
//
// The subject is exposed as globals: hp, max_hp, mp, max_mp, hp_pct,
// mp_pct, alive, stunned, time (simulated seconds), plus the functions
// has_buff(source) and cooldown(hrid).
type Evaluator struct {
	L        *lua.LState
	limit    int
	compiled map[string]*lua.LFunction
	logger   *zap.Logger

	subject trigger.Subject
	now     time.Duration
}

// NewEvaluator creates an Evaluator. When libDir is non-empty every *.lua file
// in it is executed in lexicographic order so expressions can call the
// helpers it defines.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a ready Evaluator, or an error on a library load
// failure. The caller must Close it.
func NewEvaluator(limit int, libDir string, logger *zap.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{
		L:        NewSandboxedState(),
		limit:    limit,
		compiled: make(map[string]*lua.LFunction),
		logger:   logger,
	}
	e.registerFunctions()
	if libDir != "" {
		if err := e.loadLibrary(libDir); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Evaluator) loadLibrary(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var luaFiles []string
	for _, ent := range entries {
		if !ent.IsDir() && filepath.Ext(ent.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, ent.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		done := limited(e.L, e.limit)
		err := e.L.DoFile(path)
		done()
		if err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	e.logger.Debug("script library loaded", zap.String("dir", dir), zap.Int("files", len(luaFiles)))
	return nil
}

func (e *Evaluator) registerFunctions() {
	e.L.SetGlobal("has_buff", e.L.NewFunction(func(L *lua.LState) int {
		source := L.CheckString(1)
		L.Push(lua.LBool(e.subject != nil && e.subject.HasBuff(source)))
		return 1
	}))
	e.L.SetGlobal("cooldown", e.L.NewFunction(func(L *lua.LState) int {
		hrid := L.CheckString(1)
		if e.subject == nil {
			L.Push(lua.LNil)
			return 1
		}
		rem, ok := e.subject.CooldownRemaining(hrid, e.now)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(rem.Seconds()))
		return 1
	}))
}

// Close releases the VM.
func (e *Evaluator) Close() {
	e.L.Close()
}

// EvalScript implements trigger.ScriptEvaluator.
//
// Precondition: s must be non-nil.
// Postcondition: booleans map to 1 and 0, nil maps to 0; runtime errors,
// instruction-limit overruns and other result types return an error.
func (e *Evaluator) EvalScript(expr string, s trigger.Subject, now time.Duration) (float64, error) {
	fn, err := e.compile(expr)
	if err != nil {
		return 0, err
	}
	e.bind(s, now)
	defer e.bind(nil, 0)

	done := limited(e.L, e.limit)
	err = e.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true})
	done()
	if err != nil {
		return 0, fmt.Errorf("scripting: evaluating %q: %w", expr, err)
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)

	switch v := ret.(type) {
	case lua.LNumber:
		return float64(v), nil
	case lua.LBool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		if ret == lua.LNil {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %q returned %s", ErrNotNumeric, expr, ret.Type())
	}
}

func (e *Evaluator) compile(expr string) (*lua.LFunction, error) {
	if fn, ok := e.compiled[expr]; ok {
		return fn, nil
	}
	fn, err := e.L.LoadString("return (" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling %q: %w", expr, err)
	}
	e.compiled[expr] = fn
	return fn, nil
}

func (e *Evaluator) bind(s trigger.Subject, now time.Duration) {
	e.subject = s
	e.now = now
	if s == nil {
		return
	}
	hp, maxHP := s.HP(), s.MaxHP()
	mp, maxMP := s.MP(), s.MaxMP()
	e.L.SetGlobal("hp", lua.LNumber(hp))
	e.L.SetGlobal("max_hp", lua.LNumber(maxHP))
	e.L.SetGlobal("mp", lua.LNumber(mp))
	e.L.SetGlobal("max_mp", lua.LNumber(maxMP))
	e.L.SetGlobal("hp_pct", lua.LNumber(pct(hp, maxHP)))
	e.L.SetGlobal("mp_pct", lua.LNumber(pct(mp, maxMP)))
	e.L.SetGlobal("alive", lua.LBool(s.Alive()))
	e.L.SetGlobal("stunned", lua.LBool(s.Stunned(now)))
	e.L.SetGlobal("time", lua.LNumber(now.Seconds()))
}

func pct(cur, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return cur / max * 100
}
