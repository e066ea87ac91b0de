package calendar

import "time"

const (
	dateLayout = "2006-01-02"

	// Placeholder used when the provider sends an event with no title.
	untitledSummary = "No Title"
)

// EventTime is a start or end marker exactly as the provider sends it:
// either an RFC3339 timestamp carrying an offset (or "Z"), or a bare
// calendar date for all-day events. At most one field is set.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Text returns the original textual representation, preferring the
// timestamp form. Display code uses this so the source precision is
// preserved.
func (et EventTime) Text() string {
	if et.DateTime != "" {
		return et.DateTime
	}
	return et.Date
}

// RawEvent is an unmodified event record as returned by the provider.
// Read-only to this system.
type RawEvent struct {
	Summary  string
	Location string
	Start    EventTime
	End      EventTime
}

// SimplifiedEvent is the normalized, display-ready record served over
// HTTP and rendered into prompt context. The derived instants are kept
// unexported; they drive classification and never appear on the wire.
type SimplifiedEvent struct {
	Summary   string  `json:"summary"`
	Location  string  `json:"location"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`

	startAt  time.Time
	endAt    time.Time
	hasStart bool
	hasEnd   bool
}

// instantOf derives a zone-aware instant from an EventTime. Timestamps
// keep their source offset; all-day dates become midnight in the process
// local zone at the moment of normalization, so they sort consistently
// with timed events. Missing or malformed values are reported as absent
// rather than as errors, so one bad record never aborts a batch.
func instantOf(et EventTime) (time.Time, bool) {
	if et.DateTime != "" {
		t, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if et.Date != "" {
		t, err := time.ParseInLocation(dateLayout, et.Date, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Simplify converts one raw provider record into its canonical
// simplified form. No I/O.
func Simplify(ev RawEvent) SimplifiedEvent {
	se := SimplifiedEvent{
		Summary:  ev.Summary,
		Location: ev.Location,
		Start:    ev.Start.Text(),
		End:      ev.End.Text(),
	}
	if se.Summary == "" {
		se.Summary = untitledSummary
	}

	if se.startAt, se.hasStart = instantOf(ev.Start); se.hasStart {
		d := se.startAt.Format(dateLayout)
		se.StartDate = &d
	}
	if se.endAt, se.hasEnd = instantOf(ev.End); se.hasEnd {
		d := se.endAt.Format(dateLayout)
		se.EndDate = &d
	}
	return se
}

// sameEvent reports whether two simplified events refer to the same
// occurrence, by (summary, start, end) equality. Used to keep the
// current event out of the upcoming list when query windows overlap.
func sameEvent(a, b SimplifiedEvent) bool {
	return a.Summary == b.Summary && a.Start == b.Start && a.End == b.End
}
