package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrKeyNotFound  = errors.New("key not found")
	ErrNoSigningKey = errors.New("no private key found for signing")
)

const (
	ephemeralKeyID   = "ephemeral"
	ephemeralKeyBits = 2048
)

// KeyProvider defines the interface for providing cryptographic keys.
type KeyProvider interface {
	GetSigningKey() (kid string, key *rsa.PrivateKey, err error)
	GetVerificationKey(kid string) (*rsa.PublicKey, error)
}

// DirKeyProvider reads PEM encoded RSA keys from a directory. The file name
// without extension becomes the kid; the first private key found signs.
type DirKeyProvider struct {
	keys       map[string]*rsa.PublicKey
	signingKID string
	signingKey *rsa.PrivateKey
}

// NewDirKeyProvider loads every key file under keyDir.
func NewDirKeyProvider(keyDir string) (*DirKeyProvider, error) {
	files, err := os.ReadDir(keyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}

	provider := &DirKeyProvider{
		keys: make(map[string]*rsa.PublicKey),
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		path := filepath.Join(keyDir, file.Name())
		keyData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
		}

		block, _ := pem.Decode(keyData)
		if block == nil {
			return nil, fmt.Errorf("failed to decode PEM block from %s", path)
		}

		kid := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if err := provider.add(kid, block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse key from file %s: %w", path, err)
		}
	}

	if provider.signingKey == nil {
		return nil, ErrNoSigningKey
	}

	return provider, nil
}

func (p *DirKeyProvider) add(kid string, der []byte) error {
	// PKCS#1 private key
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		p.addPrivate(kid, key)
		return nil
	}

	// PKCS#8 private key
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			p.addPrivate(kid, rsaKey)
			return nil
		}
	}

	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		p.keys[kid] = key
		return nil
	}

	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			p.keys[kid] = rsaKey
			return nil
		}
	}

	return errors.New("unsupported key encoding")
}

func (p *DirKeyProvider) addPrivate(kid string, key *rsa.PrivateKey) {
	if p.signingKey == nil {
		p.signingKey = key
		p.signingKID = kid
	}
	p.keys[kid] = &key.PublicKey
}

// GetSigningKey returns the private key for signing tokens.
func (p *DirKeyProvider) GetSigningKey() (string, *rsa.PrivateKey, error) {
	return p.signingKID, p.signingKey, nil
}

// GetVerificationKey returns the public key for verifying tokens.
func (p *DirKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	key, ok := p.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}

// EphemeralKeyProvider holds a freshly generated key pair; tokens it signs do
// not survive a restart.
type EphemeralKeyProvider struct {
	key *rsa.PrivateKey
}

// NewEphemeralKeyProvider generates a new RSA key pair.
func NewEphemeralKeyProvider() (*EphemeralKeyProvider, error) {
	key, err := rsa.GenerateKey(rand.Reader, ephemeralKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &EphemeralKeyProvider{key: key}, nil
}

// GetSigningKey returns the generated private key.
func (p *EphemeralKeyProvider) GetSigningKey() (string, *rsa.PrivateKey, error) {
	return ephemeralKeyID, p.key, nil
}

// GetVerificationKey returns the generated public key for the ephemeral kid.
func (p *EphemeralKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	if kid != ephemeralKeyID {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return &p.key.PublicKey, nil
}

// NewKeyProvider creates a KeyProvider based on the environment. Production
// requires a key directory; other environments fall back to an ephemeral key.
func NewKeyProvider(env, keyDir string) (KeyProvider, error) {
	switch env {
	case "production":
		return NewDirKeyProvider(keyDir)
	default:
		if _, err := os.Stat(keyDir); err == nil {
			return NewDirKeyProvider(keyDir)
		}
		return NewEphemeralKeyProvider()
	}
}
