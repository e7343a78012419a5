package store

import (
	"context"
	"sync"
)

// MemoryStore is a CredentialStore that lives for the lifetime of the process.
type MemoryStore struct {
	mu         sync.Mutex
	credential *Credential
	profile    *Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*Credential, *Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cred *Credential
	if m.credential != nil {
		c := *m.credential
		cred = &c
	}
	var profile *Profile
	if m.profile != nil {
		p := *m.profile
		profile = &p
	}
	return cred, profile, nil
}

func (m *MemoryStore) Save(_ context.Context, cred Credential, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = &cred
	m.profile = &profile
	return nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = &profile
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = nil
	m.profile = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
