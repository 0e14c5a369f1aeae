package domain

import "testing"

func TestParseDegradationPolicyMode(t *testing.T) {
	cases := map[string]DegradationPolicyMode{
		"strict":   DegradationPolicyModeStrict,
		" STRICT ": DegradationPolicyModeStrict,
		"lenient":  DegradationPolicyModeLenient,
		"":         DegradationPolicyModeLenient,
		"unknown":  DegradationPolicyModeLenient,
	}
	for input, want := range cases {
		if got := ParseDegradationPolicyMode(input); got != want {
			t.Fatalf("ParseDegradationPolicyMode(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestDegradationPolicyFallback(t *testing.T) {
	if !NewDegradationPolicy("").AllowsFallback(DegradationReasonStoreTimeout) {
		t.Fatalf("expected default policy to fail open")
	}
	if NewDegradationPolicy(DegradationPolicyModeStrict).AllowsFallback(DegradationReasonStoreUnavailable) {
		t.Fatalf("expected strict policy to refuse fallback")
	}
}

func TestBucketExpiryNeedsArming(t *testing.T) {
	if !NotArmed().NeedsArming() {
		t.Fatalf("bucket without countdown must be armed")
	}
	if !Absent().NeedsArming() {
		t.Fatalf("vanished bucket must be armed")
	}
	if ExpiresIn(0).NeedsArming() {
		t.Fatalf("armed bucket must not be re-armed")
	}
}

func TestBucketKey(t *testing.T) {
	if got := BucketKey("blacklist", 3); got != "blacklist3" {
		t.Fatalf("unexpected bucket key %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	if _, err := BearerToken("   "); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	token, err := BearerToken(" abc ")
	if err != nil || token != " abc " {
		t.Fatalf("unexpected result %q, %v", token, err)
	}
}
