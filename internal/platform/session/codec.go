// Package session seals client-held session state into signed, expiring tokens.
//
// Each token is bound to a kind (carried as the audience) and to the key the client
// presents it under (carried as the subject), so a token minted for one search id
// cannot be replayed under another.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/txpress/taxi-api/internal/ports/out/clock"
)

// Kind names a family of session tokens.
type Kind string

const (
	KindAuth         Kind = "auth"
	KindSearch       Kind = "search"
	KindRegistration Kind = "registration"
)

// MinSecretLen is the minimum HMAC key length accepted by NewCodec.
const MinSecretLen = 32

// ErrInvalidToken is returned for any token that is malformed, forged, expired or bound elsewhere.
var ErrInvalidToken = errors.New("invalid session token")

type Options struct {
	Secret []byte
	Issuer string
	TTL    map[Kind]time.Duration
	Clock  clock.Clock
}

type Codec struct {
	secret []byte
	issuer string
	ttl    map[Kind]time.Duration
	clock  clock.Clock
}

type claims struct {
	Payload json.RawMessage `json:"payload"`
	jwt.RegisteredClaims
}

func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) < MinSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLen)
	}
	if opts.Clock == nil {
		return nil, errors.New("nil clock")
	}
	ttl := make(map[Kind]time.Duration, 3)
	for _, k := range []Kind{KindAuth, KindSearch, KindRegistration} {
		d := opts.TTL[k]
		if d <= 0 {
			return nil, fmt.Errorf("session ttl for %q must be positive", k)
		}
		ttl[k] = d
	}
	return &Codec{
		secret: append([]byte(nil), opts.Secret...),
		issuer: opts.Issuer,
		ttl:    ttl,
		clock:  opts.Clock,
	}, nil
}

// TTL returns the lifetime of tokens of kind k.
func (c *Codec) TTL(k Kind) time.Duration { return c.ttl[k] }

// Seal encodes payload as a token of kind k bound to key.
func (c *Codec) Seal(k Kind, key string, payload any) (string, error) {
	ttl, ok := c.ttl[k]
	if !ok {
		return "", fmt.Errorf("unknown session kind %q", k)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal session payload: %w", err)
	}
	now := c.clock.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Payload: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   key,
			Audience:  jwt.ClaimStrings{string(k)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(c.secret)
}

// Open verifies token as a token of kind k bound to key and decodes its payload into out.
func (c *Codec) Open(k Kind, key, token string, out any) error {
	if _, ok := c.ttl[k]; !ok {
		return fmt.Errorf("unknown session kind %q", k)
	}
	var cl claims
	_, err := jwt.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(string(k)),
		jwt.WithSubject(key),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(cl.Payload, out); err != nil {
		return ErrInvalidToken
	}
	return nil
}
