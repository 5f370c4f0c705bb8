package share

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

var (
	ErrInvalidToken = errors.New("invalid share token")
	ErrExpired      = errors.New("share link expired")
)

// DefaultLinkTTL is how long a share link stays valid unless the caller
// picks a different duration.
const DefaultLinkTTL = 7 * 24 * time.Hour

// keySalt is fixed: tokens must verify across restarts with only the
// configured secret as input.
var keySalt = []byte("vintage-wizard-share-v1")

// Signer mints and verifies expiring read-only share tokens for items.
// Tokens are self-contained, so no share state is persisted.
type Signer struct {
	key []byte
}

// NewSigner derives the signing key from the configured secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("share secret must not be empty")
	}
	key, err := scrypt.Key([]byte(secret), keySalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive share key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Token returns a share token for an item that verifies until expiry.
func (s *Signer) Token(itemID string, expiry time.Time) string {
	payload := itemID + "." + strconv.FormatInt(expiry.Unix(), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + s.sign(payload)
}

// Verify checks a token's signature and expiry and returns the item id it
// grants access to.
func (s *Signer) Verify(token string) (string, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	payload := string(raw)

	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return "", ErrInvalidToken
	}

	itemID, expStr, ok := strings.Cut(payload, ".")
	if !ok || itemID == "" {
		return "", ErrInvalidToken
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if time.Now().After(time.Unix(exp, 0)) {
		return "", ErrExpired
	}
	return itemID, nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
