package identity

import (
	"context"
	"sync"
	"time"

	"rumble-survey/internal/common/auth"
	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/common/logger"

	"github.com/google/uuid"
)

// UserCreator is the part of the Keycloak client the provider needs.
type UserCreator interface {
	CreateAnonymousUser(ctx context.Context, handle, kiosk string) (*auth.User, error)
}

// Keycloak issues identities backed by disposable Keycloak users.
type Keycloak struct {
	broadcaster
	signIn   sync.Mutex
	client   UserCreator
	kiosk    string
	registry *Registry
	log      logger.Logger
	now      func() time.Time
}

// NewKeycloak creates a Keycloak-backed provider. kiosk tags the created
// users; registry may be nil.
func NewKeycloak(client UserCreator, kiosk string, registry *Registry, log logger.Logger) *Keycloak {
	return &Keycloak{client: client, kiosk: kiosk, registry: registry, log: log, now: time.Now}
}

func (p *Keycloak) Name() string { return "keycloak" }

func (p *Keycloak) SignInAnonymous(ctx context.Context) (Identity, error) {
	p.signIn.Lock()
	defer p.signIn.Unlock()

	if id, ok := p.snapshot(); ok {
		return id, nil
	}

	user, err := p.client.CreateAnonymousUser(ctx, uuid.NewString(), p.kiosk)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return Identity{}, err
		}
		return Identity{}, errors.NewIdentityUnavailableError(p.Name(), err)
	}

	id := Identity{ID: user.ID, Provider: p.Name(), IssuedAt: p.now().UTC()}
	p.registry.record(ctx, id, p.log)
	p.set(id)

	p.log.Info("anonymous identity issued", map[string]interface{}{
		"provider": p.Name(),
		"identity": id.ID,
	})
	return id, nil
}

func (p *Keycloak) OnIdentityChange(l Listener) func() {
	return p.subscribe(l)
}
