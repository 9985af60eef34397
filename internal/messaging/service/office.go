package service

import (
	"time"

	"businesson_backend/platform/config"
)

// OfficeHours is the daily window during which the AI responder engages.
// Outside of it, inbound messages get the fixed out-of-office reply.
type OfficeHours struct {
	start int
	end   int
	loc   *time.Location
}

// NewOfficeHours builds the window from configuration.
func NewOfficeHours(cfg config.OfficeHoursConfig) OfficeHours {
	return OfficeHours{
		start: cfg.GetOfficeHoursStart(),
		end:   cfg.GetOfficeHoursEnd(),
		loc:   cfg.GetOfficeTimezone(),
	}
}

// OutOfOffice reports whether t falls outside the configured window.
func (o OfficeHours) OutOfOffice(t time.Time) bool {
	hour := t.In(o.loc).Hour()
	return hour < o.start || hour >= o.end
}

// Location returns the configured timezone, used to interpret booking slots.
func (o OfficeHours) Location() *time.Location {
	return o.loc
}
