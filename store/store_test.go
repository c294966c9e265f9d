package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every local Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "nodes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqliteStore,
	}
}

func TestEnsureCreatesAncestors(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ensure("/app/config/db"))
			require.NoError(t, s.Ensure("/app/config/db"), "ensure must be idempotent")

			root, err := s.Children("/")
			require.NoError(t, err)
			assert.Equal(t, []string{"app"}, root)

			children, err := s.Children("/app/config")
			require.NoError(t, err)
			assert.Equal(t, []string{"db"}, children)

			data, err := s.Get("/app")
			require.NoError(t, err)
			assert.Empty(t, data)
		})
	}
}

func TestMissingNodes(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("/missing")
			assert.ErrorIs(t, err, ErrNoNode)

			_, err = s.Children("/missing")
			assert.ErrorIs(t, err, ErrNoNode)

			assert.ErrorIs(t, s.Set("/missing", []byte("x")), ErrNoNode)
			assert.ErrorIs(t, s.Delete("/missing", false), ErrNoNode)
		})
	}
}

func TestSetAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ensure("/app/config"))
			require.NoError(t, s.Set("/app/config", []byte("port=8080")))

			data, err := s.Get("/app/config")
			require.NoError(t, err)
			assert.Equal(t, "port=8080", string(data))

			// Ensure on an existing node keeps its payload.
			require.NoError(t, s.Ensure("/app/config"))
			data, err = s.Get("/app/config")
			require.NoError(t, err)
			assert.Equal(t, "port=8080", string(data))
		})
	}
}

func TestDeleteGuardsNonEmptyNodes(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ensure("/app/config/db"))
			require.NoError(t, s.Ensure("/app/configuration"))

			err := s.Delete("/app/config", false)
			assert.ErrorIs(t, err, ErrNotEmpty)
			_, err = s.Get("/app/config")
			require.NoError(t, err, "node must survive a refused delete")

			require.NoError(t, s.Delete("/app/config", true))
			_, err = s.Get("/app/config")
			assert.ErrorIs(t, err, ErrNoNode)
			_, err = s.Get("/app/config/db")
			assert.ErrorIs(t, err, ErrNoNode)

			// A sibling sharing the name prefix is untouched.
			children, err := s.Children("/app")
			require.NoError(t, err)
			assert.Equal(t, []string{"configuration"}, children)
		})
	}
}

func TestDeleteLeaf(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ensure("/a/b"))
			require.NoError(t, s.Delete("/a/b", false))

			children, err := s.Children("/a")
			require.NoError(t, err)
			assert.Empty(t, children)
		})
	}
}

func TestDeleteRootRefused(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Delete("/", true))
		})
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "nodes.db")

	first, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Ensure("/svc/a"))
	require.NoError(t, first.Set("/svc/a", []byte("hello")))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer second.Close()

	data, err := second.Get("/svc/a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestParseHosts(t *testing.T) {
	tests := []struct {
		name        string
		hosts       string
		wantServers []string
		wantChroot  string
	}{
		{"single", "localhost:2181", []string{"localhost:2181"}, ""},
		{"ensemble", "a:2181,b:2181, c:2181", []string{"a:2181", "b:2181", "c:2181"}, ""},
		{"chroot", "a:2181,b:2181/app/prod", []string{"a:2181", "b:2181"}, "/app/prod"},
		{"trailing slash chroot", "a:2181/app/", []string{"a:2181"}, "/app"},
		{"bare slash", "a:2181/", []string{"a:2181"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			servers, chroot := ParseHosts(tt.hosts)
			if diff := cmp.Diff(tt.wantServers, servers); diff != "" {
				t.Errorf("servers mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantChroot, chroot)
		})
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open("mem://", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open("sqlite://"+filepath.Join(t.TempDir(), "x.db"), Options{})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open("  ", Options{})
	assert.Error(t, err)
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, ancestors("/a/b/c"))
	assert.Empty(t, ancestors("/"))
	assert.Equal(t, "/", parentOf("/a"))
	assert.Equal(t, "/a/b", parentOf("/a/b/c"))
	assert.Equal(t, "c", baseName("/a/b/c"))
	assert.Equal(t, "", baseName("/"))
}
