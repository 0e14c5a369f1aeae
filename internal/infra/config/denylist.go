package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	SelectorWeekday = "weekday"
	SelectorEpoch   = "epoch"

	DefaultKeyPrefix = "blacklist"

	daysPerWeek = 7
	week        = daysPerWeek * 24 * time.Hour
)

// ReuseInterval reports how long it takes before a ring position is selected again.
func (s DenylistSettings) ReuseInterval() time.Duration {
	if s.selector() == SelectorWeekday {
		return week
	}
	return s.EpochLength * time.Duration(s.Buckets)
}

// Validate rejects settings that would silently weaken revocation.
func (s DenylistSettings) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Store)) {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store %q", domain.ErrInvalidConfiguration, s.Store)
	}

	switch s.selector() {
	case SelectorWeekday:
		if s.Buckets != daysPerWeek {
			return fmt.Errorf("%w: weekday selector requires %d buckets, got %d", domain.ErrInvalidConfiguration, daysPerWeek, s.Buckets)
		}
		if _, err := s.LoadLocation(); err != nil {
			return err
		}
	case SelectorEpoch:
		if s.Buckets < 1 {
			return fmt.Errorf("%w: buckets must be positive, got %d", domain.ErrInvalidConfiguration, s.Buckets)
		}
		if s.EpochLength <= 0 {
			return fmt.Errorf("%w: epoch length must be positive", domain.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown selector %q", domain.ErrInvalidConfiguration, s.Selector)
	}

	if s.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", domain.ErrInvalidConfiguration)
	}
	if reuse := s.ReuseInterval(); s.Window > reuse {
		return fmt.Errorf("%w: window %s exceeds bucket reuse interval %s", domain.ErrInvalidConfiguration, s.Window, reuse)
	}
	if s.StoreTimeout <= 0 {
		return fmt.Errorf("%w: store timeout must be positive", domain.ErrInvalidConfiguration)
	}
	return nil
}

// LoadLocation resolves the time zone used by the weekday selector.
func (s DenylistSettings) LoadLocation() (*time.Location, error) {
	name := strings.TrimSpace(s.Location)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %v", domain.ErrInvalidConfiguration, name, err)
	}
	return loc, nil
}

func (s DenylistSettings) selector() string {
	return strings.ToLower(strings.TrimSpace(s.Selector))
}
