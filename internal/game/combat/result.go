package combat

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how chance is resolved.
type Mode string

const (
	// ModeExpected replaces every roll with its expected value. It is the
	// default and is fully deterministic.
	ModeExpected Mode = "expected"
	// ModeStochastic rolls from a seeded source.
	ModeStochastic Mode = "stochastic"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeExpected || m == ModeStochastic }

// AttackStats aggregates every strike for one (source, target, ability) key.
type AttackStats struct {
	Attempts float64 `json:"attempts" yaml:"attempts"`
	Hits     float64 `json:"hits" yaml:"hits"`
	Misses   float64 `json:"misses" yaml:"misses"`
	Crits    float64 `json:"crits" yaml:"crits"`
	Damage   float64 `json:"damage" yaml:"damage"`
}

func (a *AttackStats) add(o Outcome, dealt float64) {
	a.Attempts++
	a.Hits += o.Hits
	a.Misses += o.Misses
	a.Crits += o.Crits
	a.Damage += dealt
}

// DungeonStats holds the dungeon-only counters.
type DungeonStats struct {
	// MaxWave is the highest wave reached, one-based.
	MaxWave     int `json:"max_wave" yaml:"max_wave"`
	Completions int `json:"completions" yaml:"completions"`
	Failures    int `json:"failures" yaml:"failures"`
}

// Result is the raw aggregate of one simulation run. Players are keyed by id,
// monsters by hrid and skills by name.
type Result struct {
	RunID  uuid.UUID `json:"run_id" yaml:"run_id"`
	Target string    `json:"target" yaml:"target"`
	Tier   int       `json:"tier" yaml:"tier"`
	Mode   Mode      `json:"mode" yaml:"mode"`
	// Seed is the stochastic seed; 0 in expected mode.
	Seed          uint64        `json:"seed,omitempty" yaml:"seed,omitempty"`
	SimulatedTime time.Duration `json:"simulated_time" yaml:"simulated_time"`
	// Cancelled is set when the run stopped before its requested duration.
	Cancelled bool `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`

	Players []string           `json:"players" yaml:"players"`
	Debuffs map[string]float64 `json:"debuffs" yaml:"debuffs"`

	Deaths          map[string]int                                    `json:"deaths" yaml:"deaths"`
	Experience      map[string]map[string]float64                     `json:"experience" yaml:"experience"`
	Attacks         map[string]map[string]map[string]*AttackStats     `json:"attacks" yaml:"attacks"`
	ConsumablesUsed map[string]map[string]int                         `json:"consumables_used" yaml:"consumables_used"`
	AbilitiesUsed   map[string]map[string]int                         `json:"abilities_used" yaml:"abilities_used"`
	ManaUsed        map[string]map[string]float64                     `json:"mana_used" yaml:"mana_used"`
	HPGained        map[string]map[string]float64                     `json:"hp_gained" yaml:"hp_gained"`
	MPGained        map[string]map[string]float64                     `json:"mp_gained" yaml:"mp_gained"`
	MonsterDeaths   map[string]int                                    `json:"monster_deaths" yaml:"monster_deaths"`
	Encounters      int                                               `json:"encounters" yaml:"encounters"`
	Dungeon         *DungeonStats                                     `json:"dungeon,omitempty" yaml:"dungeon,omitempty"`
	// Drops is each player's item count, expected or rolled depending on Mode.
	Drops map[string]map[string]float64 `json:"drops" yaml:"drops"`
}

func newResult(players []string) *Result {
	return &Result{
		RunID:           uuid.New(),
		Players:         players,
		Debuffs:         make(map[string]float64),
		Deaths:          make(map[string]int),
		Experience:      make(map[string]map[string]float64),
		Attacks:         make(map[string]map[string]map[string]*AttackStats),
		ConsumablesUsed: make(map[string]map[string]int),
		AbilitiesUsed:   make(map[string]map[string]int),
		ManaUsed:        make(map[string]map[string]float64),
		HPGained:        make(map[string]map[string]float64),
		MPGained:        make(map[string]map[string]float64),
		MonsterDeaths:   make(map[string]int),
		Drops:           make(map[string]map[string]float64),
	}
}

// Attack returns the bucket for (source, target, ability), creating it.
func (r *Result) Attack(source, target, ability string) *AttackStats {
	byTarget, ok := r.Attacks[source]
	if !ok {
		byTarget = make(map[string]map[string]*AttackStats)
		r.Attacks[source] = byTarget
	}
	byAbility, ok := byTarget[target]
	if !ok {
		byAbility = make(map[string]*AttackStats)
		byTarget[target] = byAbility
	}
	s, ok := byAbility[ability]
	if !ok {
		s = &AttackStats{}
		byAbility[ability] = s
	}
	return s
}

// DamageDealt returns the total damage dealt by source across targets and abilities.
func (r *Result) DamageDealt(source string) float64 {
	var total float64
	for _, byAbility := range r.Attacks[source] {
		for _, s := range byAbility {
			total += s.Damage
		}
	}
	return total
}

// TotalExperience returns a player's experience summed over skills.
func (r *Result) TotalExperience(player string) float64 {
	var total float64
	for _, v := range r.Experience[player] {
		total += v
	}
	return total
}

func addFloat(m map[string]map[string]float64, outer, inner string, v float64) {
	if v == 0 {
		return
	}
	in, ok := m[outer]
	if !ok {
		in = make(map[string]float64)
		m[outer] = in
	}
	in[inner] += v
}

func addInt(m map[string]map[string]int, outer, inner string, v int) {
	in, ok := m[outer]
	if !ok {
		in = make(map[string]int)
		m[outer] = in
	}
	in[inner] += v
}
