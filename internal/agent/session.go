// Package agent holds the client-side state of a LinkedIn Agent session: the
// saved connection, the last fetched profile and the chat transcript.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"gwi.com/linkedin-agent/internal/core"
	"gwi.com/linkedin-agent/internal/store"
)

var (
	ErrMissingCredentials = core.ErrMissingCredentials
	ErrNotConnected       = errors.New("LinkedIn account is not connected")
	ErrBusy               = errors.New("a profile request is already in progress")
	ErrConnectFailed      = errors.New("failed to fetch profile data, check your cookies and try again")
	ErrRefreshFailed      = errors.New("failed to refresh profile data")
)

// ProfileScraper is satisfied by client.Client.
type ProfileScraper interface {
	ScrapeProfile(ctx context.Context, cookie, userAgent string) (*store.Profile, error)
}

// Responder is satisfied by core.ChatService.
type Responder interface {
	Respond(ctx context.Context, message string) <-chan store.ChatTurn
}

type Session struct {
	store     store.CredentialStore
	scraper   ProfileScraper
	responder Responder

	// loading only guards against a second fetch from the same session; it is
	// not a lock on the proxy.
	loading atomic.Bool

	mu         sync.Mutex
	credential store.Credential
	profile    *store.Profile
	transcript []store.ChatTurn
}

// NewSession restores any saved connection and profile.
func NewSession(ctx context.Context, st store.CredentialStore, scraper ProfileScraper, responder Responder) (*Session, error) {
	cred, profile, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved session: %w", err)
	}

	s := &Session{store: st, scraper: scraper, responder: responder, profile: profile}
	if cred != nil && cred.Complete() {
		s.credential = *cred
		s.credential.Connected = true
	}
	return s, nil
}

func (s *Session) Credential() store.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// Profile returns a copy of the current profile, or nil.
func (s *Session) Profile() *store.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential.Connected
}

func (s *Session) Loading() bool {
	return s.loading.Load()
}

// Transcript returns a copy of the chat so far.
func (s *Session) Transcript() []store.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.ChatTurn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Connect fetches the profile for the given credentials and, on success,
// saves both the connection and the profile.
func (s *Session) Connect(ctx context.Context, cookie, userAgent string) (*store.Profile, error) {
	if cookie == "" || userAgent == "" {
		return nil, ErrMissingCredentials
	}
	if !s.loading.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.loading.Store(false)

	profile, err := s.scraper.ScrapeProfile(ctx, cookie, userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	cred := store.Credential{Cookie: cookie, UserAgent: userAgent, Connected: true}
	if err := s.store.Save(ctx, cred, *profile); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.mu.Lock()
	s.credential = cred
	s.profile = profile
	s.mu.Unlock()

	p := *profile
	return &p, nil
}

// Refresh re-fetches the profile with the saved credentials and replaces the
// stored profile.
func (s *Session) Refresh(ctx context.Context) (*store.Profile, error) {
	cred := s.Credential()
	if !cred.Connected {
		return nil, ErrNotConnected
	}
	if !s.loading.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.loading.Store(false)

	profile, err := s.scraper.ScrapeProfile(ctx, cred.Cookie, cred.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if err := s.store.SaveProfile(ctx, *profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	p := *profile
	return &p, nil
}

// Disconnect forgets the connection and profile, in memory and on disk.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear saved session: %w", err)
	}

	s.mu.Lock()
	s.credential = store.Credential{}
	s.profile = nil
	s.mu.Unlock()
	return nil
}

// SendMessage appends the user's message to the transcript and returns a
// channel that yields the agent's reply once it has been appended too. Blank
// messages are ignored and yield a closed channel.
func (s *Session) SendMessage(ctx context.Context, message string) (<-chan store.ChatTurn, error) {
	if !s.Connected() {
		return nil, ErrNotConnected
	}

	out := make(chan store.ChatTurn, 1)
	if strings.TrimSpace(message) == "" {
		close(out)
		return out, nil
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, store.ChatTurn{Role: store.RoleUser, Message: message})
	s.mu.Unlock()

	replies := s.responder.Respond(ctx, message)
	go func() {
		defer close(out)
		reply, ok := <-replies
		if !ok {
			return
		}
		s.mu.Lock()
		s.transcript = append(s.transcript, reply)
		s.mu.Unlock()
		out <- reply
	}()
	return out, nil
}

var _ Responder = (*core.ChatService)(nil)
