package portfolio

import "slices"

// Constraints bounds individual and sector weights in the final list.
type Constraints struct {
	MaxSectorWeight float64  // per sector, fraction of total
	MaxWeight       float64  // per position
	MinWeight       float64  // per position; below this a position is dropped
	BlackList       []string // symbols never allocated
}

// IsBlackListed checks whether a symbol is excluded from allocation.
func (c *Constraints) IsBlackListed(symbol string) bool {
	return slices.Contains(c.BlackList, symbol)
}

// DefaultConstraints returns the default allocation constraints.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxSectorWeight: 0.30,
		MaxWeight:       0.15,
		MinWeight:       0.02,
		BlackList:       []string{},
	}
}
