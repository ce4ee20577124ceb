package ssh

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/intreport/simulate"
)

func TestPoolSharesConnection(t *testing.T) {
	srv, err := simulate.Start(simulate.Config{Listen: "127.0.0.1:0", Dir: "../../testdata/replay", Password: "nova"})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	pool := NewPool(&PoolConfig{
		MaxIdle:     2,
		MaxActive:   2,
		IdleTimeout: time.Minute,
		SSHConfig:   &Config{Timeout: 5 * time.Second, ConnectTimeout: 5 * time.Second, MaxSessions: 3},
	})
	t.Cleanup(func() { pool.Close() })

	info := &ConnectionInfo{Host: "127.0.0.1", Port: srv.Port(), Username: "admin", Password: "nova"}
	commands := []string{"show version", "show interface brief", "show interface description"}

	var wg sync.WaitGroup
	errs := make([]error, len(commands))
	for i, cmd := range commands {
		wg.Add(1)
		go func(i int, cmd string) {
			defer wg.Done()
			_, errs[i] = pool.ExecuteCommand(context.Background(), info, cmd)
		}(i, cmd)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	stats := pool.Stats()
	assert.Equal(t, 1, stats["total_connections"])
	assert.Equal(t, 0, stats["active_connections"])

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Stats()["total_connections"])
}

func TestConnectionInfoAddress(t *testing.T) {
	assert.Equal(t, "mds-01:22", (&ConnectionInfo{Host: "mds-01"}).Address())
	assert.Equal(t, "[fe80::1]:2222", (&ConnectionInfo{Host: "fe80::1", Port: 2222}).Address())
}

func TestPoolFull(t *testing.T) {
	pool := NewPool(&PoolConfig{MaxActive: 1, SSHConfig: &Config{ConnectTimeout: time.Second}})
	t.Cleanup(func() { pool.Close() })
	pool.connections["x"] = &pooledConnection{client: NewClient(pool.config), refs: 1}

	_, err := pool.GetConnection(context.Background(), &ConnectionInfo{Host: "127.0.0.1", Port: 1, Username: "a", Password: "b"})
	assert.ErrorContains(t, err, "pool is full")
}

func TestPoolDoesNotShareAcrossCredentials(t *testing.T) {
	srv, err := simulate.Start(simulate.Config{Listen: "127.0.0.1:0", Dir: "../../testdata/replay", Password: "nova"})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	pool := NewPool(&PoolConfig{
		MaxActive: 4,
		SSHConfig: &Config{Timeout: 5 * time.Second, ConnectTimeout: 5 * time.Second, MaxSessions: 2},
	})
	t.Cleanup(func() { pool.Close() })

	good := &ConnectionInfo{Host: "127.0.0.1", Port: srv.Port(), Username: "admin", Password: "nova"}
	_, err = pool.ExecuteCommand(context.Background(), good, "show version")
	require.NoError(t, err)
	require.Equal(t, 1, pool.Stats()["total_connections"])

	bad := &ConnectionInfo{Host: "127.0.0.1", Port: srv.Port(), Username: "admin", Password: "wrong"}
	_, err = pool.ExecuteCommand(context.Background(), bad, "show version")
	assert.Error(t, err)
	assert.Equal(t, 1, pool.Stats()["total_connections"])
}

func TestConnectionKeyHidesPassword(t *testing.T) {
	a := &ConnectionInfo{Host: "mds-01", Username: "admin", Password: "nova"}
	b := &ConnectionInfo{Host: "mds-01", Username: "admin", Password: "other"}
	c := &ConnectionInfo{Host: "mds-01", Username: "admin", Password: "nova", KeyFile: "/tmp/id_ed25519"}

	assert.NotEqual(t, connectionKey(a), connectionKey(b))
	assert.NotEqual(t, connectionKey(a), connectionKey(c))
	assert.Equal(t, connectionKey(a), connectionKey(&ConnectionInfo{Host: "mds-01", Port: 22, Username: "admin", Password: "nova"}))
	assert.False(t, strings.Contains(connectionKey(a), "nova"))
}
