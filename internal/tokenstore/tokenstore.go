// Package tokenstore persists the access and refresh credentials of a session.
package tokenstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshTTL is how long a refresh token is kept after it was stored.
const RefreshTTL = 7 * 24 * time.Hour

var (
	ErrMalformedToken = errors.New("malformed access token")
)

type Tokens struct {
	Access        string    `json:"access,omitempty"`
	Refresh       string    `json:"refresh,omitempty"`
	AccessExpiry  time.Time `json:"access_expiry,omitempty"`
	RefreshExpiry time.Time `json:"refresh_expiry,omitempty"`
}

// Store holds the session credentials. Implementations are safe for concurrent use.
type Store interface {
	Get() (Tokens, bool)
	Set(access, refresh string) error
	Clear() error
}

// AccessExpiry decodes the exp claim of a JWT without verifying its signature;
// verification is the backend's job.
func AccessExpiry(access string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	return exp.Time, nil
}

// Issue builds the stored form of a freshly minted token pair.
func Issue(access, refresh string, now time.Time) (Tokens, error) {
	expiry, err := AccessExpiry(access)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		Access:        access,
		Refresh:       refresh,
		AccessExpiry:  expiry,
		RefreshExpiry: now.Add(RefreshTTL),
	}, nil
}

// Live drops whatever has expired at now, like a cookie jar would.
func (t Tokens) Live(now time.Time) (Tokens, bool) {
	if t.Access != "" && !t.AccessExpiry.IsZero() && !now.Before(t.AccessExpiry) {
		t.Access = ""
		t.AccessExpiry = time.Time{}
	}
	if t.Refresh != "" && !t.RefreshExpiry.IsZero() && !now.Before(t.RefreshExpiry) {
		t.Refresh = ""
		t.RefreshExpiry = time.Time{}
	}
	return t, t.Access != "" || t.Refresh != ""
}
