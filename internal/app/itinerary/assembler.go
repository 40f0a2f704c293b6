// Package itinerary assembles frozen voting results into a day-by-day plan.
package itinerary

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// Narrator writes prose around a fixed day schedule.
type Narrator interface {
	NarrateItinerary(ctx context.Context, hotel planning.HotelInfo, days []planning.DayPlan) (string, error)
}

// Config holds assembler configuration.
type Config struct {
	ArrivalDay bool // Day 1 gets the arrival schedule instead of a full day
}

// Assembler builds itineraries from frozen options. Day schedules are
// deterministic; only the narrative comes from the narrator.
type Assembler struct {
	narrator Narrator
	config   Config
}

// NewAssembler creates a new Assembler.
func NewAssembler(narrator Narrator, config Config) *Assembler {
	return &Assembler{
		narrator: narrator,
		config:   config,
	}
}

// Assemble builds the full itinerary for the frozen options. A narrator
// that produces no text degrades to the plain schedule; a narrator that
// cannot be reached fails the assembly so the caller can roll back.
func (a *Assembler) Assemble(ctx context.Context, hotel planning.HotelInfo, days int, activities, eateries []planning.Option) (planning.Itinerary, error) {
	plans := a.BuildDays(hotel, days, activities, eateries)
	plain := planning.RenderPlain(plans)

	narrative, err := a.narrator.NarrateItinerary(ctx, hotel, plans)
	switch {
	case errors.Is(err, planning.ErrGeneration):
		zlog.Warn().Msgf("narration failed, degrading to plain itinerary: error=%v", err)
		narrative = ""
	case err != nil:
		return planning.Itinerary{}, err
	}

	return planning.Itinerary{
		Days:        plans,
		Narrative:   narrative,
		Plain:       plain,
		GeneratedAt: time.Now(),
	}, nil
}

// BuildDays lays the frozen options over the day templates. Options are
// assigned round-robin in rank order, wrapping when there are fewer
// options than slots. Higher-ranked options land on earlier days.
func (a *Assembler) BuildDays(hotel planning.HotelInfo, days int, activities, eateries []planning.Option) []planning.DayPlan {
	acts := &cursor{options: activities}
	eats := &cursor{options: eateries}

	plans := make([]planning.DayPlan, 0, days)
	for day := 1; day <= days; day++ {
		if day == 1 && a.config.ArrivalDay {
			plans = append(plans, arrivalDayPlan(day, hotel, eats))
			continue
		}
		plans = append(plans, normalDayPlan(day, hotel, acts, eats))
	}
	return plans
}

// cursor walks a ranked option list, wrapping at the end.
type cursor struct {
	options []planning.Option
	idx     int
}

func (c *cursor) next() *planning.Option {
	if len(c.options) == 0 {
		return nil
	}
	opt := c.options[c.idx%len(c.options)]
	c.idx++
	return &opt
}

// arrivalDayPlan covers arrival, check-in and a gentle first evening.
// Two eateries, no activity.
func arrivalDayPlan(day int, hotel planning.HotelInfo, eats *cursor) planning.DayPlan {
	return planning.DayPlan{
		Day: day,
		Blocks: []planning.TimeBlock{
			{Start: "12:00", Title: "Arrive at " + hotel.Name, Note: "Drop bags at reception"},
			{Start: "12:30", End: "14:00", Title: "Lunch", Option: eats.next()},
			{Start: "14:00", End: "15:00", Title: "Explore the nearby area"},
			{Start: "15:00", Title: "Hotel check-in"},
			{Start: "15:00", End: "16:30", Title: "Rest and settle in"},
			{Start: "16:30", End: "18:00", Title: "Beach or pool at the hotel"},
			{Start: "18:00", End: "19:00", Title: "Freshen up"},
			{Start: "19:30", Title: "Dinner", Option: eats.next()},
		},
	}
}

// normalDayPlan is one full day: morning activity, lunch nearby, rest in
// the afternoon, dinner in the evening.
func normalDayPlan(day int, hotel planning.HotelInfo, acts, eats *cursor) planning.DayPlan {
	return planning.DayPlan{
		Day: day,
		Blocks: []planning.TimeBlock{
			{Start: "08:00", End: "09:30", Title: "Breakfast at " + hotel.Name},
			{Start: "09:30", End: "10:00", Title: "Travel to the morning activity"},
			{Start: "10:00", End: "13:00", Title: "Morning activity", Option: acts.next()},
			{Start: "13:00", End: "14:00", Title: "Lunch", Option: eats.next(), Note: "Pick a spot near the morning activity"},
			{Start: "14:00", End: "14:30", Title: "Travel back to the hotel"},
			{Start: "14:30", End: "16:30", Title: "Rest at the hotel"},
			{Start: "16:30", End: "18:00", Title: "Beach or pool at the hotel"},
			{Start: "18:00", End: "19:00", Title: "Freshen up"},
			{Start: "19:30", Title: "Dinner", Option: eats.next()},
		},
	}
}
