// README: Tiered driver selection; pure so it can be tested without a store.
package dispatch

import "math/rand"

var tiers = []struct {
	tier int
	keep func(c Candidate, count int) bool
}{
	{TierCapacityAndRoute, func(c Candidate, count int) bool { return c.Shares && c.SharedSeats+count <= c.Seats }},
	{TierProvenCompletion, func(c Candidate, _ int) bool { return c.HasCompleted }},
	{TierNoConflict, func(c Candidate, _ int) bool { return !c.HasConflict }},
}

// SelectTier returns the first non-empty tier and its survivors, or TierNone.
// A taxi with fewer seats than count never qualifies.
func SelectTier(cands []Candidate, count int) (int, []Candidate) {
	fit := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Seats >= count {
			fit = append(fit, c)
		}
	}
	for _, t := range tiers {
		var pool []Candidate
		for _, c := range fit {
			if t.keep(c, count) {
				pool = append(pool, c)
			}
		}
		if len(pool) > 0 {
			return t.tier, pool
		}
	}
	return TierNone, nil
}

// Pick chooses uniformly among pool.
func Pick(rnd *rand.Rand, pool []Candidate) Candidate {
	return pool[rnd.Intn(len(pool))]
}
