// Package trigger implements the boolean gating conditions that decide when a
// consumable or ability is used automatically.
package trigger

import (
	"errors"
	"fmt"
	"time"
)

// Dependency selects which unit(s) a trigger inspects.
type Dependency string

const (
	DependencySelf    Dependency = "self"
	DependencyTarget  Dependency = "target"
	DependencyAllies  Dependency = "allies"
	DependencyEnemies Dependency = "enemies"
)

// Condition selects the quantity a trigger measures.
type Condition string

const (
	ConditionCurrentHPPercentage Condition = "current_hp_percentage"
	ConditionCurrentMPPercentage Condition = "current_mp_percentage"
	ConditionCurrentHP           Condition = "current_hp"
	ConditionCurrentMP           Condition = "current_mp"
	ConditionMissingHP           Condition = "missing_hp"
	ConditionMissingMP           Condition = "missing_mp"
	ConditionBuffActive          Condition = "buff_active"
	ConditionCooldownRemaining   Condition = "cooldown_remaining"
	ConditionStunned             Condition = "stunned"
	ConditionActiveUnits         Condition = "active_units"
	ConditionDeadUnits           Condition = "dead_units"
	ConditionElapsedSeconds      Condition = "elapsed_seconds"
	ConditionScript              Condition = "script"
)

// Comparator relates a measured quantity to the trigger's Value.
type Comparator string

const (
	LessThan           Comparator = "<"
	LessThanOrEqual    Comparator = "<="
	Equal              Comparator = "=="
	GreaterThanOrEqual Comparator = ">="
	GreaterThan        Comparator = ">"
)

// Trigger is an immutable predicate over live simulation state.
type Trigger struct {
	Dependency Dependency `yaml:"dependency" json:"dependency"`
	Condition  Condition  `yaml:"condition" json:"condition"`
	Comparator Comparator `yaml:"comparator" json:"comparator"`
	Value      float64    `yaml:"value" json:"value"`
	// Param carries the buff source, the cooldown hrid or the Lua expression
	// for conditions that need one.
	Param string `yaml:"param,omitempty" json:"param,omitempty"`
}

// String renders t for logs, e.g. "self current_hp_percentage < 50".
func (t Trigger) String() string {
	if t.Param != "" {
		return fmt.Sprintf("%s %s(%s) %s %g", t.Dependency, t.Condition, t.Param, t.Comparator, t.Value)
	}
	return fmt.Sprintf("%s %s %s %g", t.Dependency, t.Condition, t.Comparator, t.Value)
}

// ErrUnsupported is returned for dependency/condition/comparator combinations
// the evaluator cannot resolve.
var ErrUnsupported = errors.New("unsupported trigger")

// Subject is the read-only view of a unit that triggers inspect.
type Subject interface {
	UnitID() string
	Alive() bool
	HP() float64
	MaxHP() float64
	MP() float64
	MaxMP() float64
	HasBuff(source string) bool
	// CooldownRemaining reports the time left on the named consumable or
	// ability; ok is false when the unit has no such slot.
	CooldownRemaining(hrid string, now time.Duration) (remaining time.Duration, ok bool)
	Stunned(now time.Duration) bool
}

// ScriptEvaluator computes the value of a scripted condition for one subject.
type ScriptEvaluator interface {
	EvalScript(expr string, s Subject, now time.Duration) (float64, error)
}

// Env is the simulation state a trigger is evaluated against.
type Env struct {
	Self    Subject
	Target  Subject
	Allies  []Subject
	Enemies []Subject
	Now     time.Duration
	// EncounterStart is when the current encounter spawned.
	EncounterStart time.Duration
	Scripts        ScriptEvaluator
}

// Evaluate resolves t against env.
//
// Postcondition: a non-nil error means the trigger could not be resolved; the
// boolean is then false.
func Evaluate(t Trigger, env Env) (bool, error) {
	if !validComparator(t.Comparator) {
		return false, fmt.Errorf("%w: comparator %q", ErrUnsupported, t.Comparator)
	}

	switch t.Condition {
	case ConditionActiveUnits, ConditionDeadUnits:
		group, err := groupFor(t.Dependency, env)
		if err != nil {
			return false, err
		}
		n := 0
		for _, s := range group {
			if s.Alive() == (t.Condition == ConditionActiveUnits) {
				n++
			}
		}
		return compare(float64(n), t.Comparator, t.Value), nil
	case ConditionElapsedSeconds:
		return compare((env.Now - env.EncounterStart).Seconds(), t.Comparator, t.Value), nil
	}

	switch t.Dependency {
	case DependencySelf, DependencyTarget:
		s := env.Self
		if t.Dependency == DependencyTarget {
			s = env.Target
		}
		if s == nil {
			return false, fmt.Errorf("%w: no %s unit", ErrUnsupported, t.Dependency)
		}
		v, err := measure(t, s, env)
		if err != nil {
			return false, err
		}
		return compare(v, t.Comparator, t.Value), nil
	case DependencyAllies, DependencyEnemies:
		group, _ := groupFor(t.Dependency, env)
		for _, s := range group {
			if !s.Alive() {
				continue
			}
			v, err := measure(t, s, env)
			if err != nil {
				return false, err
			}
			if compare(v, t.Comparator, t.Value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: dependency %q", ErrUnsupported, t.Dependency)
	}
}

// AllSatisfied reports whether every trigger holds. An empty list is always
// satisfied. A trigger that fails to evaluate counts as not satisfied; the
// optional onError receives the failure.
func AllSatisfied(triggers []Trigger, env Env, onError func(Trigger, error)) bool {
	for _, t := range triggers {
		ok, err := Evaluate(t, env)
		if err != nil {
			if onError != nil {
				onError(t, err)
			}
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func groupFor(d Dependency, env Env) ([]Subject, error) {
	switch d {
	case DependencyAllies:
		return env.Allies, nil
	case DependencyEnemies:
		return env.Enemies, nil
	default:
		return nil, fmt.Errorf("%w: group condition on dependency %q", ErrUnsupported, d)
	}
}

func measure(t Trigger, s Subject, env Env) (float64, error) {
	switch t.Condition {
	case ConditionCurrentHPPercentage:
		return percent(s.HP(), s.MaxHP()), nil
	case ConditionCurrentMPPercentage:
		return percent(s.MP(), s.MaxMP()), nil
	case ConditionCurrentHP:
		return s.HP(), nil
	case ConditionCurrentMP:
		return s.MP(), nil
	case ConditionMissingHP:
		return s.MaxHP() - s.HP(), nil
	case ConditionMissingMP:
		return s.MaxMP() - s.MP(), nil
	case ConditionBuffActive:
		if t.Param == "" {
			return 0, fmt.Errorf("%w: buff_active without param", ErrUnsupported)
		}
		return boolValue(s.HasBuff(t.Param)), nil
	case ConditionCooldownRemaining:
		rem, ok := s.CooldownRemaining(t.Param, env.Now)
		if !ok {
			return 0, fmt.Errorf("%w: %s has no slot %q", ErrUnsupported, s.UnitID(), t.Param)
		}
		return rem.Seconds(), nil
	case ConditionStunned:
		return boolValue(s.Stunned(env.Now)), nil
	case ConditionScript:
		if env.Scripts == nil || t.Param == "" {
			return 0, fmt.Errorf("%w: script condition without evaluator or expression", ErrUnsupported)
		}
		return env.Scripts.EvalScript(t.Param, s, env.Now)
	default:
		return 0, fmt.Errorf("%w: condition %q", ErrUnsupported, t.Condition)
	}
}

func percent(cur, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return cur / max * 100
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func validComparator(c Comparator) bool {
	switch c {
	case LessThan, LessThanOrEqual, Equal, GreaterThanOrEqual, GreaterThan:
		return true
	}
	return false
}

func compare(v float64, c Comparator, value float64) bool {
	switch c {
	case LessThan:
		return v < value
	case LessThanOrEqual:
		return v <= value
	case Equal:
		return v == value
	case GreaterThanOrEqual:
		return v >= value
	case GreaterThan:
		return v > value
	}
	return false
}
