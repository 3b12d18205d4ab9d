package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"chemoventry/internal/tokenstore"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionName = "chemoventry"

	keyToken         = "token"
	keyRefreshToken  = "refreshToken"
	keyTokenExpiry   = "tokenExpiry"
	keyRefreshExpiry = "refreshExpiry"
)

// NewCookieStore builds the session cookie store. An empty secret gets a random
// key, so sessions do not survive a restart.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	key := []byte(secret)
	if secret == "" {
		log.Printf("session secret not set, using an ephemeral key")
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(tokenstore.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// cookieTokens is a tokenstore.Store over the session cookie of one request.
// Writes go out as Set-Cookie headers, so Set and Clear must run before the
// response body is written.
type cookieTokens struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter
	now   func() time.Time
}

func newCookieTokens(store sessions.Store, w http.ResponseWriter, r *http.Request) *cookieTokens {
	return &cookieTokens{store: store, r: r, w: w, now: time.Now}
}

func (c *cookieTokens) Get() (tokenstore.Tokens, bool) {
	sess, err := c.store.Get(c.r, sessionName)
	if err != nil {
		log.Printf("session decode failed err=%v", err)
		return tokenstore.Tokens{}, false
	}
	var t tokenstore.Tokens
	t.Access, _ = sess.Values[keyToken].(string)
	t.Refresh, _ = sess.Values[keyRefreshToken].(string)
	if exp, ok := sess.Values[keyTokenExpiry].(int64); ok {
		t.AccessExpiry = time.Unix(exp, 0)
	}
	if exp, ok := sess.Values[keyRefreshExpiry].(int64); ok {
		t.RefreshExpiry = time.Unix(exp, 0)
	}
	return t.Live(c.now())
}

func (c *cookieTokens) Set(access, refresh string) error {
	tokens, err := tokenstore.Issue(access, refresh, c.now())
	if err != nil {
		return err
	}
	sess, _ := c.store.Get(c.r, sessionName)
	sess.Values[keyToken] = tokens.Access
	sess.Values[keyRefreshToken] = tokens.Refresh
	sess.Values[keyTokenExpiry] = tokens.AccessExpiry.Unix()
	sess.Values[keyRefreshExpiry] = tokens.RefreshExpiry.Unix()
	if err := sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *cookieTokens) Clear() error {
	sess, _ := c.store.Get(c.r, sessionName)
	for key := range sess.Values {
		delete(sess.Values, key)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(c.r, c.w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (c *cookieTokens) accessToken() string {
	tokens, ok := c.Get()
	if !ok {
		return ""
	}
	return tokens.Access
}
