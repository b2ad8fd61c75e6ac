package frame

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for image tokens that are malformed, tampered or signed with another key.
var ErrInvalidToken = errors.New("invalid image token")

// imageClaims carries the panel content into the stateless image route.
type imageClaims struct {
	Image Image `json:"img"`
	jwt.RegisteredClaims
}

// Signer issues and verifies image tokens.
type Signer struct {
	key []byte
}

// NewSigner returns a signer for key. An empty key gets a random one, so tokens
// only verify within this process.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return &Signer{key: key}, nil
}

// Sign encodes img as an HS256 token.
func (s *Signer) Sign(img Image) (string, error) {
	claims := imageClaims{
		Image: img,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies raw and returns the image it carries.
func (s *Signer) Parse(raw string) (Image, error) {
	claims := &imageClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Image, nil
}
