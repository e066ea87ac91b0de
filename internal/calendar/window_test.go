package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoundsOf(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)

	tests := []struct {
		name          string
		now           time.Time
		wantCurStart  time.Time
		wantNextStart time.Time
		wantNextEnd   time.Time
	}{
		{
			name:          "leap year February",
			now:           time.Date(2024, 2, 15, 10, 30, 0, 0, loc),
			wantCurStart:  time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			wantNextStart: time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
			wantNextEnd:   time.Date(2024, 3, 31, 23, 59, 59, 0, loc),
		},
		{
			name:          "january into february",
			now:           time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
			wantCurStart:  time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
			wantNextStart: time.Date(2025, 2, 1, 0, 0, 0, 0, loc),
			wantNextEnd:   time.Date(2025, 2, 28, 23, 59, 59, 0, loc),
		},
		{
			name:          "december rolls into next year",
			now:           time.Date(2025, 12, 15, 23, 59, 59, 0, loc),
			wantCurStart:  time.Date(2025, 12, 1, 0, 0, 0, 0, loc),
			wantNextStart: time.Date(2026, 1, 1, 0, 0, 0, 0, loc),
			wantNextEnd:   time.Date(2026, 1, 31, 23, 59, 59, 0, loc),
		},
		{
			name:          "next month is a leap February",
			now:           time.Date(2024, 1, 31, 12, 0, 0, 0, loc),
			wantCurStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
			wantNextStart: time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			wantNextEnd:   time.Date(2024, 2, 29, 23, 59, 59, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoundsOf(tt.now)
			assert.True(t, b.StartOfCurrentMonth.Equal(tt.wantCurStart), "StartOfCurrentMonth = %v, want %v", b.StartOfCurrentMonth, tt.wantCurStart)
			assert.True(t, b.StartOfNextMonth.Equal(tt.wantNextStart), "StartOfNextMonth = %v, want %v", b.StartOfNextMonth, tt.wantNextStart)
			assert.True(t, b.EndOfNextMonth.Equal(tt.wantNextEnd), "EndOfNextMonth = %v, want %v", b.EndOfNextMonth, tt.wantNextEnd)
		})
	}
}

func TestBoundsPreserveZone(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	b := BoundsOf(time.Date(2025, 6, 10, 8, 0, 0, 0, loc))
	assert.Equal(t, loc, b.StartOfCurrentMonth.Location())
}
