package service

import (
	"sort"
)

const (
	numberDomainSize = 1000
	middleNumber     = 500
)

type numberSuggestion struct {
	value     int
	rationale string
	ok        bool
}

// suggestNumber picks a number inside one slot. taken is the set of distinct
// numbers already reserved in the slot by anyone; userHeld holds the numbers
// this specific user already reserved there, which are never suggested.
//
// Heuristics, in order: an empty slot yields the middle of the domain; a
// saturated slot scans upward for the first number the user does not hold;
// otherwise the midpoint of the largest open gap wins, nudged forward past
// the user's own numbers. Equal-size gaps favor the one found first when
// scanning in ascending numeric order.
func suggestNumber(taken map[int]bool, userHeld map[int]bool) numberSuggestion {
	if len(taken) == 0 {
		return numberSuggestion{value: middleNumber, rationale: "slot is empty, middle of the range", ok: true}
	}

	if len(taken) >= numberDomainSize {
		for value := 0; value < numberDomainSize; value++ {
			if !userHeld[value] {
				return numberSuggestion{value: value, rationale: "slot is saturated, first number you do not already hold", ok: true}
			}
		}
		return numberSuggestion{}
	}

	values := make([]int, 0, len(taken))
	for value := range taken {
		values = append(values, value)
	}
	sort.Ints(values)

	bestSize := -1
	bestMid := middleNumber

	// Leading edge gap: everything below the lowest taken value.
	if first := values[0]; first > 0 {
		bestSize = first
		bestMid = first / 2
	}

	for i := 0; i < len(values)-1; i++ {
		size := values[i+1] - values[i] - 1
		if size > bestSize {
			bestSize = size
			bestMid = (values[i] + values[i+1]) / 2
		}
	}

	// Trailing edge gap: everything above the highest taken value.
	if last := values[len(values)-1]; last < numberDomainSize-1 {
		if size := numberDomainSize - 1 - last; size > bestSize {
			bestSize = size
			bestMid = (last + 1 + numberDomainSize - 1) / 2
		}
	}

	if bestSize <= 0 {
		// Every value is taken by somebody but the domain is not saturated;
		// should not happen, fall back to the upward scan.
		for value := 0; value < numberDomainSize; value++ {
			if !taken[value] && !userHeld[value] {
				return numberSuggestion{value: value, rationale: "first open number", ok: true}
			}
		}
		return numberSuggestion{}
	}

	// Nudge forward past numbers the requesting user already holds.
	value := bestMid
	for step := 0; step < numberDomainSize; step++ {
		if !userHeld[value] {
			return numberSuggestion{value: value, rationale: "midpoint of the largest open gap", ok: true}
		}
		value = (value + 1) % numberDomainSize
	}

	return numberSuggestion{}
}

// chooseSlot returns the least contended slot, lowest index on ties.
func chooseSlot(slots []int, counts map[int]int) int {
	best := slots[0]
	for _, slot := range slots[1:] {
		if counts[slot] < counts[best] {
			best = slot
		}
	}
	return best
}
