package identity

import (
	"context"
	"sync"
	"time"

	"rumble-survey/internal/common/logger"

	"github.com/google/uuid"
)

// Local issues random UUIDs without a remote service. One identity is issued
// per process.
type Local struct {
	broadcaster
	signIn   sync.Mutex
	registry *Registry
	log      logger.Logger
	now      func() time.Time
}

// NewLocal creates a Local provider. registry may be nil.
func NewLocal(registry *Registry, log logger.Logger) *Local {
	return &Local{registry: registry, log: log, now: time.Now}
}

func (p *Local) Name() string { return "local" }

func (p *Local) SignInAnonymous(ctx context.Context) (Identity, error) {
	p.signIn.Lock()
	defer p.signIn.Unlock()

	if id, ok := p.snapshot(); ok {
		return id, nil
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	id := Identity{ID: uuid.NewString(), Provider: p.Name(), IssuedAt: p.now().UTC()}
	p.registry.record(ctx, id, p.log)
	p.set(id)

	p.log.Info("anonymous identity issued", map[string]interface{}{
		"provider": p.Name(),
		"identity": id.ID,
	})
	return id, nil
}

func (p *Local) OnIdentityChange(l Listener) func() {
	return p.subscribe(l)
}
