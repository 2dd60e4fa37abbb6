package budget

// trackerEntry accumulates per-cost-type call statistics. hasInput mirrors
// the cost type's declared input presence and is seeded once at
// construction; resets zero the sums but preserve the presence.
type trackerEntry struct {
	iterations uint64
	inputSum   uint64
	hasInput   bool
}

// meterTracker records non-authoritative per-cost-type statistics for
// reporting and calibration. It does not participate in budget limiting.
type meterTracker struct {
	entries [NumCostTypes]trackerEntry
	// count is the total number of times the meter was called.
	count uint32
}

func newMeterTracker() meterTracker {
	var t meterTracker
	for i := range t.entries {
		t.entries[i].hasInput = CostType(i).HasInput()
	}
	return t
}

func (t *meterTracker) reset() {
	t.count = 0
	for i := range t.entries {
		t.entries[i].iterations = 0
		t.entries[i].inputSum = 0
	}
}
