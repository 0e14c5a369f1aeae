package domain

import "strings"

// DegradationPolicyMode enumerates how denylist lookups behave when the store cannot answer.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient treats tokens as not revoked when the store is unavailable.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict rejects requests whenever revocation state cannot be confirmed.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationReason captures why a fallback decision is being evaluated.
type DegradationReason string

const (
	// DegradationReasonStoreTimeout denotes a store call exceeded its deadline.
	DegradationReasonStoreTimeout DegradationReason = "store_timeout"
	// DegradationReasonStoreUnavailable denotes a connection or protocol failure against the store.
	DegradationReasonStoreUnavailable DegradationReason = "store_unavailable"
)

// DegradationPolicy centralises how the service responds when revocation data is unavailable.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy constructs a policy with the provided mode, defaulting to lenient when unspecified.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeStrict {
		mode = DegradationPolicyModeLenient
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode normalises textual input into a supported policy mode.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DegradationPolicyModeStrict):
		return DegradationPolicyModeStrict
	default:
		return DegradationPolicyModeLenient
	}
}

// Mode returns the underlying policy mode.
func (p DegradationPolicy) Mode() DegradationPolicyMode {
	return p.mode
}

// IsStrict indicates whether the policy rejects degraded states.
func (p DegradationPolicy) IsStrict() bool {
	return p.mode == DegradationPolicyModeStrict
}

// AllowsFallback determines if the policy permits failing open for the supplied reason.
func (p DegradationPolicy) AllowsFallback(DegradationReason) bool {
	return !p.IsStrict()
}
