package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/marcogenualdo/classboard/internal/config"
	"github.com/marcogenualdo/classboard/pkg/security"
)

const hkdfInfo = "classboard session cookies v1"

var errMalformed = errors.New("malformed sealed cookie")

// Codec seals cookie values with XChaCha20-Poly1305. The cookie name is
// bound as associated data, so a value sealed for one cookie does not open
// under another name.
type Codec struct {
	aead   cipher.AEAD
	cookie config.ServerConfig
	clock  clockwork.Clock
}

type sealedValue struct {
	Value   string `json:"v"`
	Expires int64  `json:"e,omitempty"`
}

func NewCodec(key []byte, cookieCfg config.ServerConfig, clock clockwork.Clock) (*Codec, error) {
	if len(key) < config.MinSessionKeyLen {
		return nil, fmt.Errorf("session key must be at least %d bytes", config.MinSessionKeyLen)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(hkdfInfo)), derived); err != nil {
		return nil, fmt.Errorf("failed to derive cookie key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Codec{
		aead:   aead,
		cookie: cookieCfg,
		clock:  clock,
	}, nil
}

// Read never fails: a cookie that is missing, tampered with, sealed under
// another key or past its expiry reads as an absent credential.
func (c *Codec) Read(r *http.Request) Session {
	var s Session

	if v, err := c.open(r, AccessCookie); err == nil {
		if v.Expires == 0 {
			s.AccessToken = v.Value
		} else if expiry := time.Unix(v.Expires, 0).UTC(); c.clock.Now().Before(expiry) {
			s.AccessToken = v.Value
			s.AccessExpiry = expiry
		}
	}

	if v, err := c.open(r, RefreshCookie); err == nil {
		s.RefreshToken = v.Value
	}

	return s
}

// Write sets a cookie for every credential present in s. The access cookie
// expires with the token; the refresh cookie has no explicit expiry.
func (c *Codec) Write(w http.ResponseWriter, s Session) error {
	if s.HasAccess() {
		v := sealedValue{Value: s.AccessToken}
		if !s.AccessExpiry.IsZero() {
			v.Expires = s.AccessExpiry.Unix()
		}
		sealed, err := c.seal(AccessCookie, v)
		if err != nil {
			return err
		}
		http.SetCookie(w, security.CreateCookie(c.cookie, AccessCookie, sealed, s.AccessExpiry))
	}

	if s.HasRefresh() {
		sealed, err := c.seal(RefreshCookie, sealedValue{Value: s.RefreshToken})
		if err != nil {
			return err
		}
		http.SetCookie(w, security.CreateCookie(c.cookie, RefreshCookie, sealed, time.Time{}))
	}

	return nil
}

func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, security.ClearCookie(c.cookie, AccessCookie))
	http.SetCookie(w, security.ClearCookie(c.cookie, RefreshCookie))
}

func (c *Codec) seal(name string, v sealedValue) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode cookie %s: %w", name, err)
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := c.aead.Seal(nonce, nonce, plaintext, []byte(name))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (c *Codec) open(r *http.Request, name string) (sealedValue, error) {
	var v sealedValue

	cookie, err := security.GetCookie(r, name)
	if err != nil {
		return v, err
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return v, err
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return v, errMalformed
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return v, err
	}

	if err := json.Unmarshal(plaintext, &v); err != nil {
		return v, err
	}
	if v.Value == "" {
		return v, errMalformed
	}
	return v, nil
}
