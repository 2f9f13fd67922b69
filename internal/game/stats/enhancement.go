package stats

// MaxEnhancementLevel is the highest equipment enhancement level.
const MaxEnhancementLevel = 20

// DefaultEnhancementMultipliers scales an item's enhancement bonus by level.
var DefaultEnhancementMultipliers = []float64{
	0, 2, 4.2, 6.6, 9.2, 12, 15.2, 18.6, 22.2, 26, 30,
	34.2, 38.6, 43.2, 48, 53, 58.2, 63.6, 69.2, 75, 81,
}

// EnhancementMultiplier returns table[level], clamping level into [0, len(table)-1].
//
// Postcondition: returns 0 for an empty table.
func EnhancementMultiplier(table []float64, level int) float64 {
	if len(table) == 0 {
		return 0
	}
	if level < 0 {
		level = 0
	}
	if level >= len(table) {
		level = len(table) - 1
	}
	return table[level]
}
