package planning

import (
	"fmt"
	"strings"
	"time"
)

// TimeBlock is one scheduled entry in a day plan. Fixed blocks (travel,
// rest, leisure) carry only a title; assigned blocks also reference the
// option that filled the slot.
type TimeBlock struct {
	Start  string // "15:04"
	End    string // "15:04", empty for open-ended blocks
	Title  string
	Option *Option
	Note   string
}

// DayPlan is the ordered schedule for one trip day, 1-based.
type DayPlan struct {
	Day    int
	Blocks []TimeBlock
}

// Itinerary is the assembled trip plan. Plain always holds the
// deterministic schedule rendering; Narrative holds the narrated version
// and stays empty when narration was skipped or failed.
type Itinerary struct {
	Days        []DayPlan
	Narrative   string
	Plain       string
	GeneratedAt time.Time
}

// Text returns the narrative when present, the plain rendering otherwise.
func (it Itinerary) Text() string {
	if it.Narrative != "" {
		return it.Narrative
	}
	return it.Plain
}

// RenderPlain renders day plans as a fixed-width text schedule.
func RenderPlain(days []DayPlan) string {
	var b strings.Builder
	for i, day := range days {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Day %d\n", day.Day)
		b.WriteString(strings.Repeat("-", 40) + "\n")
		for _, blk := range day.Blocks {
			span := blk.Start
			if blk.End != "" {
				span += "-" + blk.End
			}
			fmt.Fprintf(&b, "%-11s | %s\n", span, blk.Title)
			if blk.Option != nil {
				line := blk.Option.Label
				if blk.Option.Source.Location != "" {
					line += " (" + blk.Option.Source.Location + ")"
				}
				fmt.Fprintf(&b, "%-11s |   %s\n", "", line)
			}
			if blk.Note != "" {
				fmt.Fprintf(&b, "%-11s |   %s\n", "", blk.Note)
			}
		}
	}
	return b.String()
}
