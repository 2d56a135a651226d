package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CapacitySnapshot is the ledger view of one class occurrence.
type CapacitySnapshot struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	ClassDate  string    `json:"class_date"`
	Capacity   int       `json:"capacity"`
	Occupied   int       `json:"occupied"`
	Remaining  int       `json:"remaining"`
}

// Occupied counts active bookings for (schedule, class_date).
func Occupied(ctx context.Context, repo Repository, scheduleID uuid.UUID, classDate time.Time) (int, error) {
	return repo.CountOccupied(ctx, scheduleID, classDate, nil)
}

// Remaining is capacity minus occupied, floored at 0.
func Remaining(capacity, occupied int) int {
	if r := capacity - occupied; r > 0 {
		return r
	}
	return 0
}
