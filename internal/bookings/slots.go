package bookings

import (
	"fmt"
	"time"
)

const (
	firstSlotHour = 9
	lastSlotHour  = 18
	dateLayout    = "2006-01-02"
)

// AllSlots lists the hourly visit slots from 09:00 to 18:00 inclusive.
func AllSlots() []string {
	slots := make([]string, 0, lastSlotHour-firstSlotHour+1)
	for h := firstSlotHour; h <= lastSlotHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

func validSlot(slot string) bool {
	for _, s := range AllSlots() {
		if s == slot {
			return true
		}
	}
	return false
}

// ParseVisitDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps the
// calendar day at UTC midnight. A timestamp's day is read in its own offset.
func ParseVisitDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid visit date %q", raw)
	}
	return dayOf(t), nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Availability is the slot picture of one property on one day.
type Availability struct {
	AllSlots       []string `json:"allSlots"`
	BookedSlots    []string `json:"bookedSlots"`
	AvailableSlots []string `json:"availableSlots"`
}

func availability(booked []string) Availability {
	taken := make(map[string]struct{}, len(booked))
	for _, slot := range booked {
		taken[slot] = struct{}{}
	}
	all := AllSlots()
	free := make([]string, 0, len(all))
	for _, slot := range all {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	if booked == nil {
		booked = []string{}
	}
	return Availability{AllSlots: all, BookedSlots: booked, AvailableSlots: free}
}
