package service

import (
	"time"

	"tourguide/internal/models"
)

// clock gives services a replaceable notion of "today" in the platform timezone.
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{loc: loc, now: time.Now}
}

func (c *clock) SetClock(now func() time.Time) {
	c.now = now
}

func (c *clock) today() models.Date {
	return models.NewDate(c.now().In(c.loc))
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = models.DefaultPageSize
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
