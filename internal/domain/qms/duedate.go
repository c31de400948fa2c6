package qms

// ApproachingWindowDays is the inclusive upper bound of the approaching window.
const ApproachingWindowDays = 14

// DueState is the classification of a dated record relative to today.
type DueState string

const (
	DueNone        DueState = "none"
	DueOnTrack     DueState = "on_track"
	DueApproaching DueState = "approaching"
	DueOverdue     DueState = "overdue"
)

// DaysUntil returns whole days from today to d; ok is false when d is unset.
func DaysUntil(d Date, today Date) (days int, ok bool) {
	if d.IsZero() {
		return 0, false
	}
	return DaysBetween(today, d), true
}

func IsOverdue(d Date, today Date) bool {
	n, ok := DaysUntil(d, today)
	return ok && n < 0
}

func IsApproaching(d Date, today Date) bool {
	n, ok := DaysUntil(d, today)
	return ok && n >= 0 && n <= ApproachingWindowDays
}

func Classify(d Date, today Date) DueState {
	switch {
	case IsOverdue(d, today):
		return DueOverdue
	case IsApproaching(d, today):
		return DueApproaching
	case d.IsZero():
		return DueNone
	default:
		return DueOnTrack
	}
}

// CAROverdue applies the CAR exclusion list: Closed and Completed are never overdue.
func CAROverdue(c CAR, today Date) bool {
	return !c.Status.IsTerminal() && IsOverdue(c.DueDate, today)
}
