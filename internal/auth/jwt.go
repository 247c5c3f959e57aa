package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	Type   string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// UID returns the point account the token was issued for.
func (c *Claims) UID() (int64, error) {
	id, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad uid %q", ErrInvalidToken, c.UserID)
	}
	return id, nil
}

type Pair struct {
	Access    string
	Refresh   string
	AccessExp time.Time
}

func (tm *TokenManager) GeneratePair(userID int64) (Pair, error) {
	now := tm.now()
	uid := strconv.FormatInt(userID, 10)

	access, err := tm.sign(uid, typeAccess, now, tm.accessTTL, tm.accessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := tm.sign(uid, typeRefresh, now, tm.refreshTTL, tm.refreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, AccessExp: now.Add(tm.accessTTL)}, nil
}

func (tm *TokenManager) sign(uid, typ string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		UserID: uid,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, nil
}

func (tm *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.accessSecret, typeAccess)
}

func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, tm.refreshSecret, typeRefresh)
}

func (tm *TokenManager) parse(tokenStr string, secret []byte, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || claims.Type != typ {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UID(); err != nil {
		return nil, err
	}
	return claims, nil
}
