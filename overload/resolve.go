package overload

import "cfront/util"

// Outcome is the result status of overload resolution.
type Outcome int

// Enumeration of the resolution outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeNoViable
	OutcomeAmbiguous
	OutcomeDeleted
)

// Resolution is the result of selecting the best viable candidate.
type Resolution struct {
	Outcome Outcome

	// The winning candidate for OutcomeSuccess and OutcomeDeleted.
	Best *Candidate

	// For OutcomeAmbiguous: the maximal candidates in insertion order, so
	// the diagnostic lists them deterministically.
	Ambiguous []*Candidate
}

// BestViable selects the best viable candidate.  A candidate wins when it is
// better than every other viable candidate; if no candidate beats all
// others, the set of maximal candidates is reported as ambiguous, in the
// order the candidates were added.
func (cs *CandidateSet) BestViable() Resolution {
	viable := util.Filter(cs.Candidates, func(c *Candidate) bool { return c.Viable })

	if len(viable) == 0 {
		return Resolution{Outcome: OutcomeNoViable}
	}

	best := viable[0]
	for _, c := range viable[1:] {
		if cs.betterCandidate(c, best) < 0 {
			best = c
		}
	}

	// Verify the winner against every other viable candidate.
	var maximal []*Candidate
	for _, c := range viable {
		if c != best && cs.betterCandidate(best, c) >= 0 {
			maximal = append(maximal, c)
		}
	}

	if len(maximal) > 0 {
		return Resolution{Outcome: OutcomeAmbiguous, Ambiguous: append([]*Candidate{best}, maximal...)}
	}

	if best.Failure == FailDeleted {
		return Resolution{Outcome: OutcomeDeleted, Best: best}
	}

	return Resolution{Outcome: OutcomeSuccess, Best: best}
}

// betterCandidate orders two viable candidates: negative when a is better,
// positive when b is better, zero when neither is.
func (cs *CandidateSet) betterCandidate(a, b *Candidate) int {
	// Conversion sequences decide first: a is better only if none of its
	// sequences is worse and at least one is better.
	aBetter, bBetter := false, false

	if a.HasObject && b.HasObject {
		switch CompareICS(a.ObjectICS, b.ObjectICS) {
		case -1:
			aBetter = true
		case 1:
			bBetter = true
		}
	}

	n := len(a.Conversions)
	if len(b.Conversions) < n {
		n = len(b.Conversions)
	}

	for i := 0; i < n; i++ {
		switch CompareICS(a.Conversions[i], b.Conversions[i]) {
		case -1:
			aBetter = true
		case 1:
			bBetter = true
		}
	}

	if aBetter && !bBetter {
		return -1
	}

	if bBetter && !aBetter {
		return 1
	}

	if aBetter && bBetter {
		return 0
	}

	// A non-template function beats a template specialization.
	if (a.Template == nil) != (b.Template == nil) {
		if a.Template == nil {
			return -1
		}

		return 1
	}

	// Two template specializations are ordered by partial ordering of their
	// templates.
	if a.Template != nil && b.Template != nil {
		if cmp := cs.Inst.MoreSpecializedFunction(a.Template, b.Template); cmp != 0 {
			return cmp
		}
	}

	// A real function beats a builtin operator candidate.
	if a.Builtin != b.Builtin {
		if !a.Builtin {
			return -1
		}

		return 1
	}

	return 0
}
