package encounter

import (
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/dice"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

// Spawn is one group of monsters to put into the fight.
type Spawn struct {
	Monsters []string
	// Wave is the zero-based dungeon wave, or 0 for zones.
	Wave int
	Boss bool
}

// Plan sequences spawns for one run.
//
// In expected-value mode (nil roller) zone groups are drawn by smooth
// weighted round-robin so every monster appears in proportion to its weight
// without randomness. With a roller, monsters are drawn by weighted chance.
type Plan struct {
	Def  *gamedata.EncounterDef
	Tier int

	roller  *dice.Roller
	current []float64
	total   float64
	spawned int
	wave    int
}

// NewPlan resolves target against catalog. A monster hrid becomes a zone of
// group size one.
//
// Postcondition: returns a *simerr.Error with CodeUnknownTarget when target
// names neither an encounter nor a monster.
func NewPlan(target string, tier int, catalog *gamedata.Catalog, roller *dice.Roller) (*Plan, error) {
	def, ok := catalog.Encounter(target)
	if !ok {
		if _, isMonster := catalog.Monster(target); !isMonster {
			return nil, simerr.New(simerr.CodeUnknownTarget, simerr.PhaseSetup, target, "no encounter or monster with this hrid")
		}
		def = &gamedata.EncounterDef{
			HRID:      target,
			Kind:      gamedata.EncounterZone,
			GroupSize: 1,
			Spawns:    []gamedata.SpawnEntry{{Monster: target, Weight: 1}},
		}
	}
	p := &Plan{Def: def, Tier: tier, roller: roller, current: make([]float64, len(def.Spawns))}
	for _, s := range def.Spawns {
		p.total += s.Weight
	}
	return p, nil
}

// IsDungeon reports whether the plan walks dungeon waves.
func (p *Plan) IsDungeon() bool { return p.Def.Kind == gamedata.EncounterDungeon }

// Next returns the next group to spawn.
func (p *Plan) Next() Spawn {
	if p.IsDungeon() {
		w := p.Def.Waves[p.wave]
		return Spawn{Monsters: append([]string(nil), w.Monsters...), Wave: p.wave}
	}
	p.spawned++
	if b := p.Def.Boss; b != nil && p.spawned%b.Every == 0 {
		return Spawn{Monsters: append([]string(nil), b.Monsters...), Boss: true}
	}
	group := make([]string, 0, p.Def.GroupSize)
	for i := 0; i < p.Def.GroupSize; i++ {
		group = append(group, p.Def.Spawns[p.pick()].Monster)
	}
	return Spawn{Monsters: group}
}

func (p *Plan) pick() int {
	if p.roller != nil {
		r := p.roller.Between("spawn", 0, p.total)
		for i, s := range p.Def.Spawns {
			if r < s.Weight {
				return i
			}
			r -= s.Weight
		}
		return len(p.Def.Spawns) - 1
	}
	best := 0
	for i, s := range p.Def.Spawns {
		p.current[i] += s.Weight
		if p.current[i] > p.current[best] {
			best = i
		}
	}
	p.current[best] -= p.total
	return best
}

// WaveCleared advances a dungeon to its next wave.
//
// Postcondition: returns true when the final wave was cleared; the dungeon
// then restarts at wave 0. Always false for zones.
func (p *Plan) WaveCleared() bool {
	if !p.IsDungeon() {
		return false
	}
	p.wave++
	if p.wave == len(p.Def.Waves) {
		p.wave = 0
		return true
	}
	return false
}

// Restart returns a dungeon to its first wave after a party wipe.
func (p *Plan) Restart() { p.wave = 0 }
