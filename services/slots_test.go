package services

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpos-backend/models"
)

func TestSlotsGrid(t *testing.T) {
	slots := slices.Collect(Slots(30, nil))

	require.Len(t, slots, 22)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "9:00 AM", slots[0].Label)
	assert.Equal(t, "19:30", slots[len(slots)-1].Start)
	assert.Equal(t, "20:00", slots[len(slots)-1].End)
	for _, s := range slots {
		assert.True(t, s.Available, s.Start)
	}
}

func TestSlotsClampToClosing(t *testing.T) {
	slots := slices.Collect(Slots(45, nil))

	byStart := map[string]Slot{}
	for _, s := range slots {
		byStart[s.Start] = s
	}
	assert.True(t, byStart["19:00"].Available)
	assert.False(t, byStart["19:30"].Available, "19:30 + 45m runs past closing")

	for s := range Slots(240, nil) {
		assert.Equal(t, s.Start <= "16:00", s.Available, s.Start)
	}
}

func TestSlotsOverlap(t *testing.T) {
	occupied := []Interval{{Start: 10 * 60, End: 10*60 + 45}}

	tests := []struct {
		start    string
		duration int
		want     bool
	}{
		{"09:00", 60, true},  // ends exactly when the booking starts
		{"09:30", 60, false}, // 09:30-10:30
		{"10:00", 30, false},
		{"10:30", 30, false}, // 10:30 < 10:45
		{"11:00", 30, true},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			var got *Slot
			for s := range Slots(tt.duration, occupied) {
				if s.Start == tt.start {
					got = &s
					break
				}
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Available)
		})
	}
}

func TestSlotFreeBoundaries(t *testing.T) {
	booked := []Interval{{Start: 600, End: 645}}

	assert.True(t, slotFree(Interval{Start: 645, End: 675}, booked), "start at existing end")
	assert.True(t, slotFree(Interval{Start: 570, End: 600}, booked), "end at existing start")
	assert.False(t, slotFree(Interval{Start: 615, End: 645}, booked))
	assert.False(t, slotFree(Interval{Start: 510, End: 540}, nil), "before opening")
	assert.False(t, slotFree(Interval{Start: 1170, End: 1230}, nil), "past closing")
}

func TestSlotFreeMatchesHalfOpenRule(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 20000; i++ {
		start := BusinessOpenMinutes + SlotStepMinutes*rng.IntN(22)
		candidate := Interval{Start: start, End: start + 5 + rng.IntN(240)}

		occupied := make([]Interval, rng.IntN(5))
		for j := range occupied {
			s := 8*60 + rng.IntN(12*60)
			occupied[j] = Interval{Start: s, End: s + 5 + rng.IntN(180)}
		}

		want := candidate.End <= BusinessCloseMinutes
		for _, o := range occupied {
			if o.Start < candidate.End && o.End > candidate.Start {
				want = false
			}
		}
		if !assert.Equal(t, want, slotFree(candidate, occupied), "case %d: %+v vs %+v", i, candidate, occupied) {
			return
		}
	}
}

func TestOccupiedIntervalsIgnoresCancelled(t *testing.T) {
	appointments := []models.Appointment{
		{StartTime: "10:00", EndTime: "10:45", Status: models.StatusScheduled},
		{StartTime: "11:00", EndTime: "12:00", Status: models.StatusCancelled},
		{StartTime: "bad", EndTime: "12:00", Status: models.StatusConfirmed},
		{StartTime: "13:00", EndTime: "13:30", Status: models.StatusNoShow},
	}

	got := OccupiedIntervals(appointments)

	assert.Equal(t, []Interval{{Start: 600, End: 645}, {Start: 780, End: 810}}, got)
}

func TestSlotsStopsEarly(t *testing.T) {
	n := 0
	for range Slots(30, nil) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
