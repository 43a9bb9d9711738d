package plans

// CompletedWorkouts counts days that are both planned as a workout and
// toggled completed. Rest and empty days never count, no matter their
// flags.
func CompletedWorkouts(days []DayPlan) int {
	var count int
	for _, d := range days {
		if d.Kind == KindWorkout && d.Status == StatusCompleted {
			count++
		}
	}
	return count
}

// ProgressComparison is the outcome of pitting two owners' loaded day
// sets against each other, as shown in the trainer duel view.
type ProgressComparison struct {
	OwnerA     string  `json:"ownerA"`
	OwnerB     string  `json:"ownerB"`
	CompletedA int     `json:"completedA"`
	CompletedB int     `json:"completedB"`
	RatioA     float64 `json:"ratioA"`
	RatioB     float64 `json:"ratioB"`
	Leader     string  `json:"leader,omitempty"`
	Tie        bool    `json:"tie"`
}

// CompareProgress computes completed-workout counts for both owners and
// normalizes them against the higher of the two, so the leader always
// scores 1.0. Two zero scores compare as a tie.
func CompareProgress(ownerA string, daysA []DayPlan, ownerB string, daysB []DayPlan) ProgressComparison {
	a := CompletedWorkouts(daysA)
	b := CompletedWorkouts(daysB)

	max := a
	if b > max {
		max = b
	}
	if max == 0 {
		max = 1
	}

	cmp := ProgressComparison{
		OwnerA:     ownerA,
		OwnerB:     ownerB,
		CompletedA: a,
		CompletedB: b,
		RatioA:     float64(a) / float64(max),
		RatioB:     float64(b) / float64(max),
	}
	switch {
	case a == b:
		cmp.Tie = true
	case a > b:
		cmp.Leader = ownerA
	default:
		cmp.Leader = ownerB
	}
	return cmp
}
