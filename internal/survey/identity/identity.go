// Package identity issues the anonymous respondent identity a kiosk attaches
// to its submissions.
package identity

import (
	"context"
	stderrors "errors"
	"sync"
	"time"
)

// ErrNoProvider is returned by Absent.SignInAnonymous.
var ErrNoProvider = stderrors.New("no identity provider configured")

// Identity is an opaque respondent identifier.
type Identity struct {
	ID       string
	Provider string
	IssuedAt time.Time
}

// Listener receives the current identity, or present=false when there is none.
type Listener func(id Identity, present bool)

// Provider is the identity collaborator.
type Provider interface {
	Name() string
	// SignInAnonymous returns the kiosk's identity, issuing one on first use.
	SignInAnonymous(ctx context.Context) (Identity, error)
	// OnIdentityChange calls l immediately with the current state and again
	// on every change until the returned func is called.
	OnIdentityChange(l Listener) (unsubscribe func())
}

// broadcaster tracks the current identity and its subscribers.
type broadcaster struct {
	mu        sync.Mutex
	current   Identity
	present   bool
	nextID    int
	listeners map[int]Listener
}

func (b *broadcaster) subscribe(l Listener) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	current, present := b.current, b.present
	b.mu.Unlock()

	l(current, present)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) snapshot() (Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.present
}

func (b *broadcaster) set(id Identity) {
	b.mu.Lock()
	b.current, b.present = id, true
	ls := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		ls = append(ls, l)
	}
	b.mu.Unlock()

	for _, l := range ls {
		l(id, true)
	}
}

// Absent is the provider used when no store is configured. It never issues
// an identity.
type Absent struct{}

func (Absent) Name() string { return "none" }

func (Absent) SignInAnonymous(context.Context) (Identity, error) {
	return Identity{}, ErrNoProvider
}

func (Absent) OnIdentityChange(l Listener) func() {
	l(Identity{}, false)
	return func() {}
}
