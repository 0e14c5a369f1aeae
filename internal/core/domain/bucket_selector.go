package domain

import (
	"fmt"
	"time"
)

const weekdayBuckets = 7

// WeekdaySelector picks the bucket from the calendar day of week (Sunday = 0)
// in a fixed location. Each position is revisited every seven days.
type WeekdaySelector struct {
	loc *time.Location
}

// NewWeekdaySelector builds a weekday selector evaluated in loc; nil means UTC.
func NewWeekdaySelector(loc *time.Location) WeekdaySelector {
	if loc == nil {
		loc = time.UTC
	}
	return WeekdaySelector{loc: loc}
}

// CurrentBucket returns the weekday of now in the selector's location.
func (s WeekdaySelector) CurrentBucket(now time.Time) int {
	loc := s.loc
	if loc == nil {
		loc = time.UTC
	}
	return int(now.In(loc).Weekday())
}

// Size returns the ring size, always seven.
func (s WeekdaySelector) Size() int {
	return weekdayBuckets
}

// ReuseInterval returns one week.
func (s WeekdaySelector) ReuseInterval() time.Duration {
	return weekdayBuckets * 24 * time.Hour
}

// EpochSelector picks floor(unix / epoch) mod N, independent of calendars and time zones.
type EpochSelector struct {
	epoch   time.Duration
	buckets int
}

// NewEpochSelector validates and builds an epoch ring.
func NewEpochSelector(epoch time.Duration, buckets int) (EpochSelector, error) {
	if epoch <= 0 {
		return EpochSelector{}, fmt.Errorf("%w: epoch length must be positive", ErrInvalidConfiguration)
	}
	if buckets < 1 {
		return EpochSelector{}, fmt.Errorf("%w: buckets must be positive", ErrInvalidConfiguration)
	}
	return EpochSelector{epoch: epoch, buckets: buckets}, nil
}

// CurrentBucket returns the ring position owning now.
func (s EpochSelector) CurrentBucket(now time.Time) int {
	// Floor division keeps instants before 1970 on the same ring.
	ns := now.UnixNano()
	step := int64(s.epoch)
	index := ns / step
	if ns%step != 0 && ns < 0 {
		index--
	}
	pos := index % int64(s.buckets)
	if pos < 0 {
		pos += int64(s.buckets)
	}
	return int(pos)
}

// Size returns the number of ring positions.
func (s EpochSelector) Size() int {
	return s.buckets
}

// ReuseInterval returns the time for the ring to come full circle.
func (s EpochSelector) ReuseInterval() time.Duration {
	return s.epoch * time.Duration(s.buckets)
}
