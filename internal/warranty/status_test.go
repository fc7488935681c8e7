package warranty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/garancija/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func TestStatusBoundaries(t *testing.T) {
	now := t0.Add(days(400))
	start := t0

	tests := []struct {
		name string
		end  time.Time
		want model.CoverageStatus
	}{
		{"exactly 30 days left", now.Add(days(30)), model.ExpiringSoon(30)},
		{"31 days left", now.Add(days(31)), model.CoverageStatus{State: model.CoverageActive}},
		{"30 days and a second rounds up", now.Add(days(30) + time.Second), model.CoverageStatus{State: model.CoverageActive}},
		{"partial day rounds up", now.Add(2 * time.Hour), model.ExpiringSoon(1)},
		{"ends right now", now, model.ExpiringSoon(0)},
		{"ended a second ago", now.Add(-time.Second), model.CoverageStatus{State: model.CoverageExpired}},
		{"long expired", now.Add(-days(90)), model.CoverageStatus{State: model.CoverageExpired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(now, start, tt.end))
		})
	}
}

func TestStatusIsDeterministic(t *testing.T) {
	now := t0.Add(days(10))
	ends := []time.Time{t0, t0.Add(days(15)), t0.Add(days(40)), t0.Add(days(365))}
	for _, end := range ends {
		assert.Equal(t, Status(now, t0, end), Status(now, t0, end))
	}
}

func TestComputeStatusUsesWarrantyWindow(t *testing.T) {
	w := model.Warranty{StartDate: t0, EndDate: t0.Add(days(730))}
	assert.Equal(t, model.CoverageActive, ComputeStatus(w, t0.Add(days(400))).State)
	assert.Equal(t, model.CoverageExpired, ComputeStatus(w, t0.Add(days(731))).State)
}

func TestDaysRemaining(t *testing.T) {
	now := t0
	assert.Equal(t, 10, DaysRemaining(now, now.Add(days(10))))
	assert.Equal(t, 10, DaysRemaining(now, now.Add(days(10)+time.Hour)))
	assert.Equal(t, 0, DaysRemaining(now, now.Add(time.Hour)))
	assert.Equal(t, 0, DaysRemaining(now, now.Add(-days(5))))
}

func TestProgress(t *testing.T) {
	start := t0
	end := t0.Add(days(100))

	assert.InDelta(t, 0.0, Progress(start.Add(-days(1)), start, end), 1e-9)
	assert.InDelta(t, 0.0, Progress(start, start, end), 1e-9)
	assert.InDelta(t, 0.25, Progress(start.Add(days(25)), start, end), 1e-9)
	assert.InDelta(t, 1.0, Progress(end, start, end), 1e-9)
	assert.InDelta(t, 1.0, Progress(end.Add(days(30)), start, end), 1e-9)
}

func TestProgressEmptyWindow(t *testing.T) {
	assert.Equal(t, 1.0, Progress(t0.Add(-days(1)), t0, t0))
	assert.Equal(t, 1.0, Progress(t0, t0, t0))
}
