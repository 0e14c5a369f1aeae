package domain

import (
	"fmt"
	"time"
)

// ExpiryKind discriminates the states a bucket's expiry countdown can be in.
type ExpiryKind int

const (
	// ExpiryAbsent means the bucket key does not exist in the store.
	ExpiryAbsent ExpiryKind = iota
	// ExpiryNotArmed means the bucket exists but no countdown has been set.
	ExpiryNotArmed
	// ExpiryArmed means the bucket exists and will vanish after Remaining.
	ExpiryArmed
)

// String implements fmt.Stringer.
func (k ExpiryKind) String() string {
	switch k {
	case ExpiryAbsent:
		return "absent"
	case ExpiryNotArmed:
		return "not_armed"
	case ExpiryArmed:
		return "armed"
	default:
		return fmt.Sprintf("expiry_kind(%d)", int(k))
	}
}

// BucketExpiry is the result of querying a bucket's remaining lifetime.
// Remaining is only meaningful when Kind is ExpiryArmed.
type BucketExpiry struct {
	Kind      ExpiryKind
	Remaining time.Duration
}

// Absent builds the expiry result for a missing bucket.
func Absent() BucketExpiry {
	return BucketExpiry{Kind: ExpiryAbsent}
}

// NotArmed builds the expiry result for a bucket without a countdown.
func NotArmed() BucketExpiry {
	return BucketExpiry{Kind: ExpiryNotArmed}
}

// ExpiresIn builds the expiry result for a bucket with an armed countdown.
func ExpiresIn(remaining time.Duration) BucketExpiry {
	return BucketExpiry{Kind: ExpiryArmed, Remaining: remaining}
}

// NeedsArming reports whether the cache must arm the retention window on this bucket.
// A bucket that vanished between insert and query is treated like a fresh epoch.
func (e BucketExpiry) NeedsArming() bool {
	switch e.Kind {
	case ExpiryNotArmed, ExpiryAbsent:
		return true
	case ExpiryArmed:
		return false
	default:
		return false
	}
}

// BucketKey formats the store key for a ring position.
func BucketKey(prefix string, position int) string {
	return fmt.Sprintf("%s%d", prefix, position)
}
