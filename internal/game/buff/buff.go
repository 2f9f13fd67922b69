// Package buff models timed and permanent stat modifiers and the per-unit set
// that holds them.
package buff

import (
	"sort"
	"time"
)

// Buff is a flat and/or ratio modifier to one stat or skill level.
//
// Invariant: Duration == 0 denotes a permanent buff.
type Buff struct {
	// Source is the hrid of whatever granted the buff (consumable, ability,
	// house room, achievement tier, zone). It keys replacement.
	Source string `yaml:"source"`
	// Type names the affected stat ("attackSpeed") or skill level ("attackLevel").
	Type     string        `yaml:"type"`
	Flat     float64       `yaml:"flat"`
	Ratio    float64       `yaml:"ratio"`
	Start    time.Duration `yaml:"-"`
	Duration time.Duration `yaml:"duration"`
}

// Permanent reports whether b never expires.
func (b Buff) Permanent() bool { return b.Duration == 0 }

// Expired reports whether b has run out at now.
//
// Postcondition: always false for permanent buffs; otherwise now-Start >= Duration.
func (b Buff) Expired(now time.Duration) bool {
	if b.Permanent() {
		return false
	}
	return now-b.Start >= b.Duration
}

// ExpiresAt returns the simulated time at which b expires.
func (b Buff) ExpiresAt() time.Duration { return b.Start + b.Duration }

// Set tracks all buffs active on one unit, in insertion order.
// It is not safe for concurrent use; the owning unit serialises access.
type Set struct {
	buffs   []Buff
	version uint64
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add applies b. A buff with the same Source and Type is replaced in place
// (its timer restarts); anything else is appended.
//
// Postcondition: Version() is incremented.
func (s *Set) Add(b Buff) {
	s.version++
	for i := range s.buffs {
		if s.buffs[i].Source == b.Source && s.buffs[i].Type == b.Type {
			s.buffs[i] = b
			return
		}
	}
	s.buffs = append(s.buffs, b)
}

// Expire removes every buff that has expired at now.
//
// Postcondition: returns true iff at least one buff was removed.
func (s *Set) Expire(now time.Duration) bool {
	kept := s.buffs[:0]
	for _, b := range s.buffs {
		if !b.Expired(now) {
			kept = append(kept, b)
		}
	}
	removed := len(kept) != len(s.buffs)
	for i := len(kept); i < len(s.buffs); i++ {
		s.buffs[i] = Buff{}
	}
	s.buffs = kept
	if removed {
		s.version++
	}
	return removed
}

// ClearTemporary removes every non-permanent buff.
func (s *Set) ClearTemporary() {
	kept := s.buffs[:0]
	for _, b := range s.buffs {
		if b.Permanent() {
			kept = append(kept, b)
		}
	}
	s.buffs = kept
	s.version++
}

// Has reports whether any buff from source is active.
func (s *Set) Has(source string) bool {
	for _, b := range s.buffs {
		if b.Source == source {
			return true
		}
	}
	return false
}

// NextExpiry returns the earliest expiry among timed buffs.
//
// Postcondition: ok is false when no timed buff is present.
func (s *Set) NextExpiry() (at time.Duration, ok bool) {
	for _, b := range s.buffs {
		if b.Permanent() {
			continue
		}
		if !ok || b.ExpiresAt() < at {
			at, ok = b.ExpiresAt(), true
		}
	}
	return at, ok
}

// Version changes every time the active set changes. Callers cache derived
// stats against it.
func (s *Set) Version() uint64 { return s.version }

// Len returns the number of active buffs.
func (s *Set) Len() int { return len(s.buffs) }

// All returns a snapshot of the active buffs in insertion order.
func (s *Set) All() []Buff {
	out := make([]Buff, len(s.buffs))
	copy(out, s.buffs)
	return out
}

// Totals sums Flat and Ratio per Type across the active buffs.
func (s *Set) Totals() map[string]Modifier {
	out := make(map[string]Modifier)
	for _, b := range s.buffs {
		m := out[b.Type]
		m.Flat += b.Flat
		m.Ratio += b.Ratio
		out[b.Type] = m
	}
	return out
}

// Modifier is the summed effect of every buff of one Type.
type Modifier struct {
	Flat  float64
	Ratio float64
}

// Apply returns (base + Flat) * (1 + Ratio).
func (m Modifier) Apply(base float64) float64 {
	return (base + m.Flat) * (1 + m.Ratio)
}

// SortedTypes returns the keys of totals in lexical order.
func SortedTypes(totals map[string]Modifier) []string {
	out := make([]string, 0, len(totals))
	for k := range totals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
