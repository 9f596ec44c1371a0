// Package conflict decides whether a candidate time range collides with the
// confirmed bookings of a room.
package conflict

import (
	"roombook/pkg/config"
	"roombook/pkg/model"
	"sort"
)

// Detect returns every confirmed booking in existing whose range overlaps
// candidate, skipping excludeID. The result is ordered by start time, then
// id, and is empty when the candidate is legal. Bookings for other rooms
// must already be filtered out by the caller.
func Detect(candidate model.TimeRange, existing []*model.Booking, excludeID string) []*model.Booking {
	conflicts := make([]*model.Booking, 0)
	for _, b := range existing {
		if b == nil || b.Status != config.Confirmed {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if candidate.Overlaps(b.Range()) {
			conflicts = append(conflicts, b)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].StartTime.Equal(conflicts[j].StartTime) {
			return conflicts[i].StartTime.Before(conflicts[j].StartTime)
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflicts
}
