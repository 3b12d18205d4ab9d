package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/models"
	"chemoventry/internal/tokenstore"
)

const (
	HomePath  = "/chemoventry"
	LoginPath = "/login"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials, check your email and password")
	ErrLoginFailed        = errors.New("login failed, try again later")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Navigator moves the client to another boundary (home after login, login after logout).
type Navigator interface {
	Navigate(target string)
}

type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// UserResolver answers who the current token belongs to.
type UserResolver interface {
	CurrentUser(ctx context.Context) (models.User, error)
}

type Manager struct {
	client *apiclient.Client
	tokens tokenstore.Store
	users  UserResolver
	nav    Navigator

	mu    sync.RWMutex
	state State
	user  *models.User
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user"`
}

func NewManager(client *apiclient.Client, users UserResolver, nav Navigator) *Manager {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	m := &Manager{
		client: client,
		tokens: client.Tokens(),
		users:  users,
		nav:    nav,
	}
	client.OnSessionEnd(m.expire)
	return m
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) CurrentUser() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	var resp loginResponse
	err := m.client.JSON(ctx, http.MethodPost, apiclient.LoginPath, nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		log.Printf("auth login failed email=%s err=%v", email, err)
		if apiclient.StatusOf(err) == http.StatusUnauthorized {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if err := m.tokens.Set(resp.Access, resp.Refresh); err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	var user models.User
	if resp.User != nil {
		user = *resp.User
	} else if m.users != nil {
		if user, err = m.users.CurrentUser(ctx); err != nil {
			_ = m.tokens.Clear()
			return models.User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
	}

	m.setAuthenticated(user)
	log.Printf("auth login ok user_id=%s role=%s", user.ID, user.Role)
	m.nav.Navigate(HomePath)
	return user, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	err := m.tokens.Clear()
	m.mu.Lock()
	m.state = Unauthenticated
	m.user = nil
	m.mu.Unlock()
	m.nav.Navigate(LoginPath)
	return err
}

// Restore resumes a persisted session. Any failure while resolving the user logs out.
func (m *Manager) Restore(ctx context.Context) (models.User, error) {
	tokens, ok := m.tokens.Get()
	if !ok {
		return models.User{}, ErrNotAuthenticated
	}
	if tokens.Access == "" {
		if _, err := m.Refresh(ctx); err != nil {
			return models.User{}, err
		}
	}
	if m.users == nil {
		return models.User{}, ErrNotAuthenticated
	}
	user, err := m.users.CurrentUser(ctx)
	if err != nil {
		log.Printf("auth restore failed err=%v", err)
		_ = m.Logout(ctx)
		return models.User{}, fmt.Errorf("restore session: %w", err)
	}
	m.setAuthenticated(user)
	return user, nil
}

// Refresh proactively rotates the token pair. On failure the client clears the
// tokens and fires the session end hook, which logs the manager out.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	return m.client.Refresh(ctx)
}

func (m *Manager) setAuthenticated(user models.User) {
	m.mu.Lock()
	m.state = Authenticated
	m.user = &user
	m.mu.Unlock()
}

// expire runs when the client gave up on a refresh; the client already cleared the tokens.
func (m *Manager) expire() {
	m.mu.Lock()
	wasAuthenticated := m.state == Authenticated
	m.state = Unauthenticated
	m.user = nil
	m.mu.Unlock()
	if wasAuthenticated {
		log.Printf("auth session expired")
	}
	m.nav.Navigate(LoginPath)
}
