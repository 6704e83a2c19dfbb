package services

import (
	"iter"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

const (
	BusinessOpenMinutes  = 9 * 60
	BusinessCloseMinutes = 20 * 60
	SlotStepMinutes      = 30
)

// Slot is one candidate booking start on the fixed grid.
type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Label     string `json:"label"`
}

// Interval is an occupied [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && iv.End > other.Start
}

// OccupiedIntervals returns the stored intervals of every appointment that
// still holds its time. Unparseable rows are skipped.
func OccupiedIntervals(appointments []models.Appointment) []Interval {
	out := make([]Interval, 0, len(appointments))
	for _, a := range appointments {
		if a.Status == models.StatusCancelled {
			continue
		}
		start, err := utils.ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		end, err := utils.ParseClock(a.EndTime)
		if err != nil {
			continue
		}
		out = append(out, Interval{Start: start, End: end})
	}
	return out
}

// Slots yields every 30-minute candidate between opening and closing for a
// service of the given duration. The sequence is computed lazily and can be
// ranged over any number of times.
func Slots(durationMinutes int, occupied []Interval) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		for start := BusinessOpenMinutes; start < BusinessCloseMinutes; start += SlotStepMinutes {
			candidate := Interval{Start: start, End: start + durationMinutes}
			slot := Slot{
				Start:     utils.FormatClock(candidate.Start),
				End:       utils.FormatClock(candidate.End),
				Available: slotFree(candidate, occupied),
				Label:     utils.ClockLabel(candidate.Start),
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// slotFree reports whether the candidate fits inside business hours and
// collides with nothing in occupied.
func slotFree(candidate Interval, occupied []Interval) bool {
	if candidate.End > BusinessCloseMinutes || candidate.Start < BusinessOpenMinutes {
		return false
	}
	for _, o := range occupied {
		if candidate.Overlaps(o) {
			return false
		}
	}
	return true
}
