package domain

import "time"

// TokenRevokedEvent represents the payload for iam.token.revoked messages.
// Only the digest travels; the raw token never leaves the process.
type TokenRevokedEvent struct {
	EventID   string    `json:"event_id"`
	TokenHash string    `json:"token_hash"`
	Bucket    int       `json:"bucket"`
	BucketKey string    `json:"bucket_key"`
	Armed     bool      `json:"armed"`
	RevokedAt time.Time `json:"revoked_at"`
}
