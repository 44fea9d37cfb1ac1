package session

import "sync"

// State is the in-memory session: the cached credential and the profile
// fetched with it. It is owned by a Manager and shared with collaborators
// that observe or invalidate the session (the 401 hook, the guard).
//
// Invariant: a profile is only held while a credential is held.
type State struct {
	mu         sync.RWMutex
	credential string
	profile    *Profile
}

func NewState() *State {
	return &State{}
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Credential    string
	Profile       *Profile
	Authenticated bool
}

func (s *State) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Profile returns a copy of the current profile, or nil.
func (s *State) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProfile(s.profile)
}

// IsAuthenticated reports credential presence only; the profile may still
// be loading or may have failed to load.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential != ""
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Credential:    s.credential,
		Profile:       copyProfile(s.profile),
		Authenticated: s.credential != "",
	}
}

// Invalidate drops the credential and profile. It is called when the server
// rejects the credential.
func (s *State) Invalidate() {
	s.clear()
}

func (s *State) clear() {
	s.mu.Lock()
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()
}

// setCredential replaces the credential; a profile fetched with a different
// credential is dropped.
func (s *State) setCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential != token {
		s.profile = nil
	}
	s.credential = token
}

// setProfileFor stores p only if token is still the current credential.
func (s *State) setProfileFor(token string, p *Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.credential != token {
		return false
	}
	s.profile = copyProfile(p)
	return true
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
