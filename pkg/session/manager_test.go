package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	deps, _ := newDeps(t)
	m := NewManager(deps, time.Minute)

	s := m.Create()
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	_, err = m.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Close(s.ID), ErrNotFound)
}

func TestManager_Sweep(t *testing.T) {
	deps, _ := newDeps(t)
	m := NewManager(deps, time.Minute)

	s := m.Create()
	login(t, s)

	assert.Zero(t, m.Sweep(time.Now()))
	assert.Equal(t, 1, m.Sweep(time.Now().Add(2*time.Minute)))
	assert.Zero(t, m.Len())
	assert.False(t, s.Auth.IsLoggedIn(), "closed sessions are logged out")
}

func TestManager_RunClosesSessionsOnShutdown(t *testing.T) {
	deps, _ := newDeps(t)
	m := NewManager(deps, time.Minute)
	m.Create()
	m.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
	assert.Zero(t, m.Len())
}
