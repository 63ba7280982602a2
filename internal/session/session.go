// Package session manages the remote session credential and answers the one
// question the sync engine asks before every remote write: is there a
// currently valid session right now?
//
// The check runs at write time, not at schedule time, because a debounce
// window may span an expired or revoked session.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Session is the persisted remote credential.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the session exists and has not expired as of now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Source supplies the current session, or nil when signed out.
type Source interface {
	// Session returns the current session, nil if there is none, or an error
	// if the lookup itself failed.
	Session() (*Session, error)
}

// FileSource reads the session from a JSON file under the data directory.
// A missing file means "signed out", not an error.
type FileSource struct {
	Path string
}

// Session implements Source.
func (f *FileSource) Session() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return &s, nil
}

// Save writes the session to the file, creating parent directories.
func (f *FileSource) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// 0600: the file carries a bearer token.
	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Clear removes the session file. Removing an absent file is not an error.
func (f *FileSource) Clear() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Guard gates remote writes on session validity.
type Guard struct {
	source Source
	now    func() time.Time
	logger *log.Logger
}

// NewGuard creates a Guard over the given source.
// If logger is nil, a default logger writing to stderr is used.
func NewGuard(source Source, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}
	return &Guard{
		source: source,
		now:    time.Now,
		logger: logger,
	}
}

// HasActiveSession reports whether a remote write may proceed. A failed
// lookup counts as "no session": the pending write is abandoned with a
// warning, never an error surfaced to the caller.
func (g *Guard) HasActiveSession() bool {
	s, err := g.source.Session()
	if err != nil {
		g.logger.Printf("WARNING: session check failed: %v", err)
		return false
	}
	if !s.Valid(g.now()) {
		return false
	}
	return true
}

// CurrentUserID returns the signed-in user's ID, or "" when signed out.
func (g *Guard) CurrentUserID() string {
	s, err := g.source.Session()
	if err != nil || !s.Valid(g.now()) {
		return ""
	}
	return s.UserID
}
