package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZooKeeperFullPath(t *testing.T) {
	tests := []struct {
		name   string
		chroot string
		path   string
		want   string
	}{
		{"no chroot root", "", "/", "/"},
		{"no chroot", "", "/app/config", "/app/config"},
		{"chroot root", "/prod", "/", "/prod"},
		{"chroot", "/prod", "/app/config", "/prod/app/config"},
		{"nested chroot", "/a/b", "/c", "/a/b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := &ZooKeeper{chroot: tt.chroot}
			assert.Equal(t, tt.want, z.full(tt.path))
		})
	}
}

func TestTranslate(t *testing.T) {
	errSession := errors.New("session expired")
	tests := []struct {
		name    string
		err     error
		want    error
		wantMsg string
	}{
		{"no node", zk.ErrNoNode, ErrNoNode, "get /x: store: no node"},
		{"not empty", zk.ErrNotEmpty, ErrNotEmpty, "get /x: store: node not empty"},
		{"other", errSession, errSession, "get /x: session expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate("get", "/x", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestZooKeeperRefusesToDeleteRoot(t *testing.T) {
	// The guard runs before the connection is touched.
	z := &ZooKeeper{chroot: "/prod"}
	err := z.Delete("/", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot delete the root node")
}

// testZooKeeper dials a throwaway local server under a chroot. It needs a
// ZooKeeper installation, located through ZOOKEEPER_BIN_PATH.
func testZooKeeper(t *testing.T) *ZooKeeper {
	t.Helper()
	if os.Getenv("ZOOKEEPER_BIN_PATH") == "" {
		t.Skip("ZOOKEEPER_BIN_PATH not set, no ZooKeeper server to test against")
	}
	cluster, err := zk.StartTestCluster(t, 1, io.Discard, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { cluster.Stop() })

	hosts := fmt.Sprintf("127.0.0.1:%d/zkshell-test", cluster.Servers[0].Port)
	z, err := DialZooKeeper(hosts, Options{SessionTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { z.Close() })
	return z
}

func TestZooKeeperTree(t *testing.T) {
	z := testZooKeeper(t)

	require.NoError(t, z.Ensure("/app/config/db"))
	require.NoError(t, z.Ensure("/app/config/db"))
	require.NoError(t, z.Ensure("/app/cache"))

	children, err := z.Children("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, children, "paths live under the chroot")

	require.NoError(t, z.Set("/app/config/db", []byte("url=x")))
	data, err := z.Get("/app/config/db")
	require.NoError(t, err)
	assert.Equal(t, "url=x", string(data))

	err = z.Delete("/app", false)
	assert.ErrorIs(t, err, ErrNotEmpty)

	require.NoError(t, z.Delete("/app", true))
	_, err = z.Get("/app/config/db")
	assert.ErrorIs(t, err, ErrNoNode)
	assert.EqualError(t, err, "get /app/config/db: store: no node", "errors name the path without the chroot")

	children, err = z.Children("/")
	require.NoError(t, err)
	assert.Empty(t, children)

	err = z.Delete("/app", true)
	assert.ErrorIs(t, err, ErrNoNode)
	assert.EqualError(t, err, "delete /app: store: no node")
}
