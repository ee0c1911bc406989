package menu

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidHours = errors.New("invalid store hours")

// Hours describes the daily opening window in a fixed UTC offset.
// CloseHour < OpenHour means the window spans midnight; equal hours mean
// the store never closes.
type Hours struct {
	OpenHour       int    `json:"open_hour"`
	CloseHour      int    `json:"close_hour"`
	UTCOffsetHours int    `json:"utc_offset_hours"`
	Display        string `json:"display"`
}

func (h Hours) Validate() error {
	if h.OpenHour < 0 || h.OpenHour > 23 {
		return fmt.Errorf("%w: open_hour=%d", ErrInvalidHours, h.OpenHour)
	}
	if h.CloseHour < 0 || h.CloseHour > 23 {
		return fmt.Errorf("%w: close_hour=%d", ErrInvalidHours, h.CloseHour)
	}
	if h.UTCOffsetHours < -12 || h.UTCOffsetHours > 14 {
		return fmt.Errorf("%w: utc_offset_hours=%d", ErrInvalidHours, h.UTCOffsetHours)
	}
	return nil
}

func (h Hours) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", h.UTCOffsetHours), h.UTCOffsetHours*3600)
}

func (h Hours) IsOpen(now time.Time) bool {
	return h.isOpenAt(now.In(h.Location()).Hour())
}

func (h Hours) isOpenAt(hour int) bool {
	switch {
	case h.OpenHour == h.CloseHour:
		return true
	case h.OpenHour < h.CloseHour:
		return hour >= h.OpenHour && hour < h.CloseHour
	default:
		return hour >= h.OpenHour || hour < h.CloseHour
	}
}
