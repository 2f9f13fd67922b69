package combat

import (
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
)

// Experience split between the primary training skill and the rest.
const (
	PrimaryShare  = 0.3
	TrainingShare = 0.7
)

// Training describes how a player's kill experience is distributed.
type Training struct {
	Style   stats.Style
	Primary stats.Skill
	Focus   stats.Skill
	// HasFocus routes the whole training share to Focus.
	HasFocus bool
	Debuff   float64
}

// SplitExperience distributes base kill experience over skills.
//
// The order is fixed: base*(1+combatExperience), then the 30/70 split, then
// each share times (1+that skill's experience bonus), then (1+debuff).
//
// Postcondition: with zero bonuses and zero debuff the shares sum to base.
func SplitExperience(base float64, t stats.Table, tr Training) map[stats.Skill]float64 {
	xp := base * (1 + t[stats.CombatExperience])
	shares := make(map[stats.Skill]float64, stats.NumSkills)
	shares[tr.Primary] += PrimaryShare * xp
	if tr.HasFocus {
		shares[tr.Focus] += TrainingShare * xp
	} else {
		skills := tr.Style.TrainingSkills()
		each := TrainingShare * xp / float64(len(skills))
		for _, s := range skills {
			shares[s] += each
		}
	}
	for s, v := range shares {
		shares[s] = v * (1 + t[s.ExperienceStat()]) * (1 + tr.Debuff)
	}
	return shares
}
