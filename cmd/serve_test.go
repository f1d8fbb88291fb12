package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/kb-resolver/internal/config"
)

func TestReloadLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		reloadLoop(ctx, 5*time.Millisecond, func(context.Context) error {
			if calls.Add(1) == 1 {
				return errors.New("first reload fails")
			}
			return nil
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reloadLoop did not stop after cancel")
	}
}

func TestServerOptions_ReloadGated(t *testing.T) {
	c := &config.Config{}
	c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	c.Server.RequestTimeoutSecs = 45
	env := &appEnv{}

	opts := serverOptions(c, env)
	assert.Nil(t, opts.Reload)
	assert.Nil(t, opts.Breaker)
	assert.Equal(t, 45*time.Second, opts.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, opts.AllowedOrigins)

	c.Server.ReloadEnabled = true
	assert.NotNil(t, serverOptions(c, env).Reload)
}
