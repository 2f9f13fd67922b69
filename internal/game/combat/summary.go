package combat

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// PriceFunc returns the market value of one unit of an item.
type PriceFunc func(hrid string) float64

// PlayerSummary is one player's per-hour view of a Result.
type PlayerSummary struct {
	ID                     string             `json:"id" yaml:"id"`
	Debuff                 float64            `json:"debuff" yaml:"debuff"`
	Deaths                 int                `json:"deaths" yaml:"deaths"`
	DeathsPerHour          float64            `json:"deaths_per_hour" yaml:"deaths_per_hour"`
	DPS                    float64            `json:"dps" yaml:"dps"`
	ExperiencePerHour      map[string]float64 `json:"experience_per_hour" yaml:"experience_per_hour"`
	TotalExperiencePerHour float64            `json:"total_experience_per_hour" yaml:"total_experience_per_hour"`
	ConsumablesPerHour     map[string]float64 `json:"consumables_per_hour" yaml:"consumables_per_hour"`
	DropsPerHour           map[string]float64 `json:"drops_per_hour" yaml:"drops_per_hour"`
	DropValue              float64            `json:"drop_value" yaml:"drop_value"`
	ConsumableCost         float64            `json:"consumable_cost" yaml:"consumable_cost"`
	ProfitPerHour          float64            `json:"profit_per_hour" yaml:"profit_per_hour"`
}

// Summary is the reporting view of a Result: every count divided by the
// simulated hours.
type Summary struct {
	RunID     uuid.UUID `json:"run_id" yaml:"run_id"`
	Target    string    `json:"target" yaml:"target"`
	Tier      int       `json:"tier" yaml:"tier"`
	Mode      Mode      `json:"mode" yaml:"mode"`
	Hours     float64   `json:"hours" yaml:"hours"`
	Cancelled bool      `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`

	EncountersPerHour   float64            `json:"encounters_per_hour" yaml:"encounters_per_hour"`
	MonsterKillsPerHour map[string]float64 `json:"monster_kills_per_hour" yaml:"monster_kills_per_hour"`
	Dungeon             *DungeonSummary    `json:"dungeon,omitempty" yaml:"dungeon,omitempty"`
	Players             []PlayerSummary    `json:"players" yaml:"players"`
}

// DungeonSummary is the per-hour view of DungeonStats.
type DungeonSummary struct {
	MaxWave            int     `json:"max_wave" yaml:"max_wave"`
	CompletionsPerHour float64 `json:"completions_per_hour" yaml:"completions_per_hour"`
	FailuresPerHour    float64 `json:"failures_per_hour" yaml:"failures_per_hour"`
}

// PerHour converts a total over d into a rate per hour.
//
// Postcondition: returns 0 when d <= 0.
func PerHour(total float64, d time.Duration) float64 {
	h := d.Hours()
	if h <= 0 {
		return 0
	}
	return total / h
}

// Profit returns (dropValue - consumableCost) per hour of d.
func Profit(dropValue, consumableCost float64, d time.Duration) float64 {
	return PerHour(dropValue-consumableCost, d)
}

// Summarize derives the per-hour report. A nil price function values
// everything at zero.
func (r *Result) Summarize(price PriceFunc) Summary {
	if price == nil {
		price = func(string) float64 { return 0 }
	}
	d := r.SimulatedTime
	s := Summary{
		RunID:               r.RunID,
		Target:              r.Target,
		Tier:                r.Tier,
		Mode:                r.Mode,
		Hours:               d.Hours(),
		Cancelled:           r.Cancelled,
		EncountersPerHour:   PerHour(float64(r.Encounters), d),
		MonsterKillsPerHour: make(map[string]float64, len(r.MonsterDeaths)),
	}
	for hrid, n := range r.MonsterDeaths {
		s.MonsterKillsPerHour[hrid] = PerHour(float64(n), d)
	}
	if r.Dungeon != nil {
		s.Dungeon = &DungeonSummary{
			MaxWave:            r.Dungeon.MaxWave,
			CompletionsPerHour: PerHour(float64(r.Dungeon.Completions), d),
			FailuresPerHour:    PerHour(float64(r.Dungeon.Failures), d),
		}
	}

	for _, id := range r.Players {
		ps := PlayerSummary{
			ID:                 id,
			Debuff:             r.Debuffs[id],
			Deaths:             r.Deaths[id],
			DeathsPerHour:      PerHour(float64(r.Deaths[id]), d),
			ExperiencePerHour:  make(map[string]float64),
			ConsumablesPerHour: make(map[string]float64),
			DropsPerHour:       make(map[string]float64),
		}
		if secs := d.Seconds(); secs > 0 {
			ps.DPS = r.DamageDealt(id) / secs
		}
		for skill, xp := range r.Experience[id] {
			ps.ExperiencePerHour[skill] = PerHour(xp, d)
		}
		ps.TotalExperiencePerHour = PerHour(r.TotalExperience(id), d)

		for _, hrid := range sortedNames(r.ConsumablesUsed[id]) {
			n := float64(r.ConsumablesUsed[id][hrid])
			ps.ConsumablesPerHour[hrid] = PerHour(n, d)
			ps.ConsumableCost += n * price(hrid)
		}
		for _, hrid := range sortedNames(r.Drops[id]) {
			n := r.Drops[id][hrid]
			ps.DropsPerHour[hrid] = PerHour(n, d)
			ps.DropValue += n * price(hrid)
		}
		ps.ProfitPerHour = Profit(ps.DropValue, ps.ConsumableCost, d)
		s.Players = append(s.Players, ps)
	}
	return s
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
