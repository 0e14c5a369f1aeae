package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

const (
	// tokenHashInfo labels the HKDF expansion so the derived key is bound to denylist use only.
	tokenHashInfo = "calendar-iam/denylist/token-hash/v1"
	// tokenHashContext separates unkeyed digests from any other BLAKE3 use of the same input.
	tokenHashContext = "calendar-iam 2019-05-01 denylist token hash"

	tokenHashKeyLength = 32
)

// TokenHasher digests raw bearer strings into fixed-length denylist identifiers.
// It never parses the token and holds no per-call state.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher derives the hashing key from secret. An empty secret selects
// the unkeyed, context-separated digest.
func NewTokenHasher(secret string) (*TokenHasher, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &TokenHasher{}, nil
	}

	key := make([]byte, tokenHashKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(tokenHashInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token hash key: %w", err)
	}
	if _, err := blake3.NewKeyed(key); err != nil {
		return nil, fmt.Errorf("init keyed blake3: %w", err)
	}

	return &TokenHasher{key: key}, nil
}

// Hash returns the hex-encoded 32-byte digest of token.
func (h *TokenHasher) Hash(token string) domain.TokenHash {
	var hasher *blake3.Hasher
	if len(h.key) == 0 {
		hasher = blake3.NewDeriveKey(tokenHashContext)
	} else {
		// Key length is validated in NewTokenHasher.
		hasher, _ = blake3.NewKeyed(h.key)
	}

	_, _ = hasher.Write([]byte(token))
	return domain.TokenHash(hex.EncodeToString(hasher.Sum(nil)))
}

var _ port.TokenHasher = (*TokenHasher)(nil)
