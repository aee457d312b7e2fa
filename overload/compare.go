package overload

import "cfront/types"

// CompareICS orders two implicit conversion sequences: negative when a is
// better, positive when b is better, zero when indistinguishable.
func CompareICS(a, b ICS) int {
	if a.Kind != b.Kind {
		// Standard beats user-defined beats ellipsis beats bad.
		if a.Kind > b.Kind {
			return -1
		}

		return 1
	}

	switch a.Kind {
	case ICSStandard:
		return compareStandard(a.Std, b.Std)

	case ICSUserDefined:
		// Comparable only when both use the same conversion function; then
		// the second standard sequences decide.
		if a.UserFn != nil && b.UserFn != nil && a.UserFn.Canonical() == b.UserFn.Canonical() {
			return compareStandard(a.After, b.After)
		}

		return 0

	default:
		return 0
	}
}

// compareStandard orders two standard conversion sequences.
func compareStandard(a, b StandardSeq) int {
	// A proper subsequence beats its superset.
	if sub := compareSubsequence(a, b); sub != 0 {
		return sub
	}

	if a.Rank != b.Rank {
		if a.Rank < b.Rank {
			return -1
		}

		return 1
	}

	// A shorter derived-to-base path is better.
	if a.DerivedToBase != b.DerivedToBase && a.DerivedToBase >= 0 && b.DerivedToBase >= 0 {
		if bothBaseSteps(a, b) {
			if a.DerivedToBase < b.DerivedToBase {
				return -1
			}

			return 1
		}
	}

	// Binding an rvalue reference to an rvalue beats binding an lvalue
	// reference.
	if a.RefBinding && b.RefBinding && a.BindsRValue != b.BindsRValue {
		if a.BindsRValue {
			return -1
		}

		return 1
	}

	// The sequence whose reference binds to a less cv-qualified type wins.
	if a.RefBinding && b.RefBinding {
		if cmp := compareRefQuals(a, b); cmp != 0 {
			return cmp
		}
	}

	// A sequence without a qualification adjustment beats one with.
	if a.QualAdjust != b.QualAdjust {
		if !a.QualAdjust {
			return -1
		}

		return 1
	}

	return 0
}

// compareSubsequence applies the subsequence rule: if one sequence performs
// a strict subset of the other's non-lvalue steps, it is better.
func compareSubsequence(a, b StandardSeq) int {
	aSteps, bSteps := stepCount(a), stepCount(b)
	if aSteps == bSteps {
		return 0
	}

	// A subsequence must agree on the steps it does perform.
	if a.SecondCast != 0 && b.SecondCast != 0 && a.SecondCast != b.SecondCast {
		return 0
	}

	if aSteps < bSteps && (a.SecondCast == 0 || a.SecondCast == b.SecondCast) {
		return -1
	}

	if bSteps < aSteps && (b.SecondCast == 0 || b.SecondCast == a.SecondCast) {
		return 1
	}

	return 0
}

func stepCount(s StandardSeq) int {
	n := 0
	if s.SecondCast != 0 {
		n++
	}

	if s.QualAdjust {
		n++
	}

	return n
}

func bothBaseSteps(a, b StandardSeq) bool {
	return a.DerivedToBase > 0 && b.DerivedToBase > 0
}

// compareRefQuals orders reference bindings by the cv-qualification of the
// referred-to type: less qualified is better when the types are otherwise
// the same.
func compareRefQuals(a, b StandardSeq) int {
	ar, br := types.AsReference(a.To.Canonical()), types.AsReference(b.To.Canonical())
	if ar == nil || br == nil {
		return 0
	}

	aq, ap := types.QualsOf(ar.Pointee.Canonical())
	bq, bp := types.QualsOf(br.Pointee.Canonical())

	if !types.Same(ap, bp) || aq == bq {
		return 0
	}

	if bq.Superset(aq) {
		return -1
	}

	if aq.Superset(bq) {
		return 1
	}

	return 0
}
