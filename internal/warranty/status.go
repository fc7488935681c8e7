// Package warranty evaluates coverage windows and warranty transfers.
//
// Every function takes the current instant explicitly and performs no I/O,
// so results are deterministic and safe to compute concurrently from
// independent snapshots.
package warranty

import (
	"time"

	"github.com/erazemk/garancija/internal/model"
)

// ExpiringSoonDays is the window in which active coverage is reported as
// expiring soon.
const ExpiringSoonDays = 30

const day = 24 * time.Hour

// Status derives the coverage status of the window [start, end] at now.
func Status(now, start, end time.Time) model.CoverageStatus {
	if end.Before(now) {
		return model.CoverageStatus{State: model.CoverageExpired}
	}
	if days := ceilDays(end.Sub(now)); days <= ExpiringSoonDays {
		return model.ExpiringSoon(days)
	}
	return model.CoverageStatus{State: model.CoverageActive}
}

// ComputeStatus derives the coverage status of a warranty at now.
func ComputeStatus(w model.Warranty, now time.Time) model.CoverageStatus {
	return Status(now, w.StartDate, w.EndDate)
}

// DaysRemaining returns the whole days left until end, never negative.
func DaysRemaining(now, end time.Time) int {
	return max(0, daysBetween(now, end))
}

// Progress returns the elapsed fraction of [start, end] at now, clamped to
// [0, 1]. An empty window counts as fully elapsed.
func Progress(now, start, end time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 1.0
	}
	at := now
	if end.Before(at) {
		at = end
	}
	return clamp(float64(at.Sub(start))/float64(total), 0, 1)
}

// daysBetween counts whole days from a to b, truncated toward zero.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

func ceilDays(d time.Duration) int {
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return days
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
