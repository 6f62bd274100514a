package contracts

import "time"

// PortfolioEntry is one position in the allocation-ready output list.
// Derived view over a filtered consensus set; recomputed each run.
type PortfolioEntry struct {
	Symbol string  `json:"symbol"`
	Sector string  `json:"sector"`
	Tier   Tier    `json:"tier"`
	Weight float64 `json:"weight"` // fraction of total, [0,1]

	Entry  float64 `json:"entry"`
	Stop   float64 `json:"stop"`
	Target float64 `json:"target"`
}

// Portfolio is the final weighted list for one run.
type Portfolio struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Entries     []PortfolioEntry `json:"entries"`
}

// TotalWeight returns the sum of all entry weights.
func (p *Portfolio) TotalWeight() float64 {
	total := 0.0
	for _, e := range p.Entries {
		total += e.Weight
	}
	return total
}

// SectorWeight returns the summed weight of one sector.
func (p *Portfolio) SectorWeight(sector string) float64 {
	total := 0.0
	for _, e := range p.Entries {
		if e.Sector == sector {
			total += e.Weight
		}
	}
	return total
}
