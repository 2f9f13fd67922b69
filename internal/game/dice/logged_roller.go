package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every stochastic outcome of a run can
// be audited at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Chance reports whether an event with probability p happens.
//
// Postcondition: always false for p <= 0 and always true for p >= 1.
func (r *Roller) Chance(label string, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	v := r.src.Float64()
	hit := v < p
	r.logger.Debug("chance roll",
		zap.String("label", label),
		zap.Float64("p", p),
		zap.Float64("roll", v),
		zap.Bool("hit", hit),
	)
	return hit
}

// Between returns a uniform value in [lo, hi].
//
// Postcondition: lo is returned when hi <= lo.
func (r *Roller) Between(label string, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + r.src.Float64()*(hi-lo)
	r.logger.Debug("range roll",
		zap.String("label", label),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("roll", v),
	)
	return v
}

// IntBetween returns a uniform integer in [lo, hi].
//
// Postcondition: lo is returned when hi <= lo.
func (r *Roller) IntBetween(label string, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	v := lo + r.src.Intn(hi-lo+1)
	r.logger.Debug("int roll",
		zap.String("label", label),
		zap.Int("lo", lo),
		zap.Int("hi", hi),
		zap.Int("roll", v),
	)
	return v
}
