package rest

import (
	"time"

	"github.com/tripquorum/tripquorum/internal/app/notification"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// HotelView is the JSON shape of a resolved hotel.
type HotelView struct {
	Name       string `json:"name"`
	Area       string `json:"area"`
	Confidence string `json:"confidence"`
}

// OptionView is the JSON shape of a votable option.
type OptionView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Location string `json:"location,omitempty"`
	Detail   string `json:"detail,omitempty"`
	URL      string `json:"url,omitempty"`
	Cuisine  string `json:"cuisine,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// TallyView pairs an option with its live vote count.
type TallyView struct {
	Option OptionView `json:"option"`
	Votes  int        `json:"votes"`
}

// TimeBlockView is one scheduled entry in a day plan.
type TimeBlockView struct {
	Start  string      `json:"start"`
	End    string      `json:"end,omitempty"`
	Title  string      `json:"title"`
	Option *OptionView `json:"option,omitempty"`
	Note   string      `json:"note,omitempty"`
}

// DayPlanView is the schedule for one trip day.
type DayPlanView struct {
	Day    int             `json:"day"`
	Blocks []TimeBlockView `json:"blocks"`
}

// ItineraryView is the JSON shape of an assembled plan. Text always holds
// something presentable: the narrative when it exists, the plain schedule
// otherwise.
type ItineraryView struct {
	Days        []DayPlanView `json:"days"`
	Narrative   string        `json:"narrative,omitempty"`
	Plain       string        `json:"plain"`
	Text        string        `json:"text"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// StateView is the render-ready state of one chat's planning session.
type StateView struct {
	ChatID           string         `json:"chat_id"`
	Stage            string         `json:"stage"`
	Hotel            *HotelView     `json:"hotel,omitempty"`
	Days             int            `json:"days,omitempty"`
	Options          []TallyView    `json:"options,omitempty"`
	FrozenActivities []OptionView   `json:"frozen_activities,omitempty"`
	FrozenFood       []OptionView   `json:"frozen_food,omitempty"`
	Itinerary        *ItineraryView `json:"itinerary,omitempty"`
	Generation       uint64         `json:"generation"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// EventView is the JSON payload of one SSE event. State is set only on the
// initial event of a fresh stream.
type EventView struct {
	ChatID     string     `json:"chat_id"`
	Type       string     `json:"type"`
	Stage      string     `json:"stage"`
	Generation uint64     `json:"generation"`
	SequenceNo uint64     `json:"sequence_no"`
	OccurredAt time.Time  `json:"occurred_at"`
	State      *StateView `json:"state,omitempty"`
}

func toStateView(v planning.View) *StateView {
	sv := &StateView{
		ChatID:     v.ChatID,
		Stage:      v.Stage.String(),
		Days:       v.Days,
		Generation: v.Generation,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
	if v.Hotel != nil {
		sv.Hotel = &HotelView{
			Name:       v.Hotel.Name,
			Area:       v.Hotel.Area,
			Confidence: string(v.Hotel.Confidence),
		}
	}
	if len(v.Options) > 0 {
		sv.Options = make([]TallyView, len(v.Options))
		for i, tally := range v.Options {
			sv.Options[i] = TallyView{Option: toOptionView(tally.Option), Votes: tally.Votes}
		}
	}
	sv.FrozenActivities = toOptionViews(v.FrozenActivities)
	sv.FrozenFood = toOptionViews(v.FrozenFood)
	if v.Itinerary != nil {
		sv.Itinerary = toItineraryView(*v.Itinerary)
	}
	return sv
}

func toOptionView(o planning.Option) OptionView {
	return OptionView{
		ID:       o.ID,
		Label:    o.Label,
		Category: string(o.Category),
		Location: o.Source.Location,
		Detail:   o.Source.Detail,
		URL:      o.Source.URL,
		Cuisine:  o.Source.Cuisine,
		Provider: o.Source.Provider,
	}
}

func toOptionViews(options []planning.Option) []OptionView {
	if len(options) == 0 {
		return nil
	}
	out := make([]OptionView, len(options))
	for i, o := range options {
		out[i] = toOptionView(o)
	}
	return out
}

func toItineraryView(it planning.Itinerary) *ItineraryView {
	iv := &ItineraryView{
		Days:        make([]DayPlanView, len(it.Days)),
		Narrative:   it.Narrative,
		Plain:       it.Plain,
		Text:        it.Text(),
		GeneratedAt: it.GeneratedAt,
	}
	for i, day := range it.Days {
		dv := DayPlanView{Day: day.Day, Blocks: make([]TimeBlockView, len(day.Blocks))}
		for j, blk := range day.Blocks {
			bv := TimeBlockView{Start: blk.Start, End: blk.End, Title: blk.Title, Note: blk.Note}
			if blk.Option != nil {
				ov := toOptionView(*blk.Option)
				bv.Option = &ov
			}
			dv.Blocks[j] = bv
		}
		iv.Days[i] = dv
	}
	return iv
}

func toEventView(ev notification.Event) EventView {
	return EventView{
		ChatID:     ev.ChatID,
		Type:       ev.Type.String(),
		Stage:      ev.Stage.String(),
		Generation: ev.Generation,
		SequenceNo: ev.SequenceNo,
		OccurredAt: ev.OccurredAt,
	}
}
