package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/dbtest"
	"github.com/nurpe/cleaning-contracts/internal/lock"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

func TestNewLockerDefaultsToLocal(t *testing.T) {
	locker, closer, err := newLocker(context.Background(), config.LockConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &lock.LocalLocker{}, locker)
}

func TestNewLockerRejectsBadURL(t *testing.T) {
	_, _, err := newLocker(context.Background(), config.LockConfig{RedisURL: "http://nope"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	services := service.New(service.Deps{
		Store:    repository.NewStore(dbtest.Open(t)),
		Workflow: config.DefaultWorkflow(),
		Log:      zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, services.Sweep, 5*time.Millisecond, zerolog.Nop())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
