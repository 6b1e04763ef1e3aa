package identity

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"rumble-survey/internal/common/auth"
	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	id      Identity
	present bool
}

type collector struct {
	mu     sync.Mutex
	events []event
}

func (c *collector) listen(id Identity, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event{id, present})
}

func (c *collector) all() []event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event(nil), c.events...)
}

func TestAbsent(t *testing.T) {
	var c collector
	unsubscribe := Absent{}.OnIdentityChange(c.listen)
	defer unsubscribe()

	require.Len(t, c.all(), 1)
	assert.False(t, c.all()[0].present)

	_, err := Absent{}.SignInAnonymous(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestLocal_IssuesOnceAndNotifies(t *testing.T) {
	p := NewLocal(nil, logger.NewTestLogger(t))

	var c collector
	unsubscribe := p.OnIdentityChange(c.listen)

	first, err := p.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "local", first.Provider)

	second, err := p.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	events := c.all()
	require.Len(t, events, 2)
	assert.False(t, events[0].present)
	assert.Equal(t, event{first, true}, events[1])

	unsubscribe()
	unsubscribe()

	var late collector
	p.OnIdentityChange(late.listen)
	assert.Equal(t, []event{{first, true}}, late.all())
}

func TestLocal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal(nil, logger.NewNoOpLogger()).SignInAnonymous(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeCreator struct {
	calls int
	err   error
}

func (f *fakeCreator) CreateAnonymousUser(_ context.Context, handle, kiosk string) (*auth.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &auth.User{ID: "kc-" + kiosk, Username: "anon-" + handle, Enabled: true}, nil
}

func TestKeycloak_SignIn(t *testing.T) {
	creator := &fakeCreator{}
	p := NewKeycloak(creator, "montclair-1", nil, logger.NewTestLogger(t))

	id, err := p.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kc-montclair-1", id.ID)
	assert.Equal(t, "keycloak", id.Provider)

	_, err = p.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, creator.calls)
}

func TestKeycloak_Failures(t *testing.T) {
	t.Run("plain error is wrapped", func(t *testing.T) {
		p := NewKeycloak(&fakeCreator{err: stderrors.New("dial tcp: i/o timeout")}, "k", nil, logger.NewNoOpLogger())
		_, err := p.SignInAnonymous(context.Background())
		assert.True(t, errors.HasCode(err, errors.ErrCodeIdentityUnavailable))
	})

	t.Run("standard error passes through", func(t *testing.T) {
		orig := errors.NewIdentityUnavailableError("keycloak", stderrors.New("403"))
		orig.Retryable = false
		p := NewKeycloak(&fakeCreator{err: orig}, "k", nil, logger.NewNoOpLogger())

		var c collector
		p.OnIdentityChange(c.listen)

		_, err := p.SignInAnonymous(context.Background())
		assert.Same(t, orig, err)
		assert.Len(t, c.all(), 1, "no change notification on failure")
	})
}

func TestRegistry_RecordAndLookup(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	reg := NewRegistry(client, "livingston-2", 720*time.Hour)
	p := NewLocal(reg, logger.NewTestLogger(t))

	id, err := p.SignInAnonymous(context.Background())
	require.NoError(t, err)

	assert.True(t, mr.Exists("anon:"+id.ID))
	assert.Equal(t, 720*time.Hour, mr.TTL("anon:"+id.ID))

	issuedAt, kiosk, found, err := reg.Lookup(context.Background(), id.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "livingston-2", kiosk)
	assert.WithinDuration(t, id.IssuedAt, issuedAt, time.Second)

	_, _, found, err = reg.Lookup(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_WriteFailureDoesNotBlockSignIn(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	p := NewLocal(NewRegistry(client, "k", time.Hour), logger.NewNoOpLogger())
	id, err := p.SignInAnonymous(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
}
