// Package store adapts hierarchical coordination stores to the small set
// of path-addressed operations the shell needs.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoNode is returned when an operation targets a path that has no node.
	ErrNoNode = errors.New("store: no node")
	// ErrNotEmpty is returned when a non-recursive delete targets a node that has children.
	ErrNotEmpty = errors.New("store: node not empty")
)

// Store is a tree of named nodes addressed by absolute slash-separated paths.
// Every node holds a byte payload and any number of children.
type Store interface {
	// Ensure creates path and all of its missing ancestors. Existing nodes are left alone.
	Ensure(path string) error
	// Delete removes the node at path. With recursive set, descendants are removed first.
	Delete(path string, recursive bool) error
	// Children returns the names of the direct children of path.
	Children(path string) ([]string, error)
	// Get returns the payload of the node at path.
	Get(path string) ([]byte, error)
	// Set replaces the payload of the node at path.
	Set(path string, data []byte) error
	// Close releases the connection.
	Close() error
}

// Options tune how a backend is opened.
type Options struct {
	// SessionTimeout is passed to backends that keep a server session.
	SessionTimeout time.Duration
	// Logf receives client diagnostics. Nil discards them.
	Logf func(format string, args ...any)
}

const (
	memoryScheme = "mem://"
	sqliteScheme = "sqlite://"
)

// Open connects to the store named by hosts.
//
//	mem://                  process-local tree
//	sqlite:///path/to/db    local file-backed tree
//	host:2181,host2:2181/ch ZooKeeper ensemble with optional chroot
func Open(hosts string, opts Options) (Store, error) {
	switch {
	case strings.HasPrefix(hosts, memoryScheme):
		return NewMemory(), nil
	case strings.HasPrefix(hosts, sqliteScheme):
		return OpenSQLite(strings.TrimPrefix(hosts, sqliteScheme))
	case strings.TrimSpace(hosts) == "":
		return nil, fmt.Errorf("store: empty connection string")
	default:
		return DialZooKeeper(hosts, opts)
	}
}

// splitPath returns the non-empty segments of an absolute path.
func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// ancestors returns every prefix of p from the first level down to p itself.
// The root is not included.
func ancestors(p string) []string {
	parts := splitPath(p)
	result := make([]string, 0, len(parts))
	current := ""
	for _, part := range parts {
		current += "/" + part
		result = append(result, current)
	}
	return result
}

// parentOf returns the parent path of p. The parent of a top-level node is "/".
func parentOf(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// baseName returns the last segment of p, or "" for the root.
func baseName(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}
