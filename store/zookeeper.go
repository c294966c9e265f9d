package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// DefaultSessionTimeout is used when Options.SessionTimeout is zero.
const DefaultSessionTimeout = 10 * time.Second

// ZooKeeper is a Store backed by a ZooKeeper ensemble.
type ZooKeeper struct {
	conn   *zk.Conn
	chroot string
}

var _ Store = (*ZooKeeper)(nil)

type logfFunc func(format string, args ...any)

func (f logfFunc) Printf(format string, args ...any) { f(format, args...) }

// ParseHosts splits a connection string such as "a:2181,b:2181/app" into
// the server list and the chroot ("/app"). The chroot is empty when absent.
func ParseHosts(hosts string) (servers []string, chroot string) {
	if i := strings.Index(hosts, "/"); i >= 0 {
		chroot = strings.TrimRight(hosts[i:], "/")
		hosts = hosts[:i]
	}
	for _, server := range strings.Split(hosts, ",") {
		if server = strings.TrimSpace(server); server != "" {
			servers = append(servers, server)
		}
	}
	return servers, chroot
}

// DialZooKeeper starts a session with the ensemble named by hosts.
// The session is established in the background; the first operation
// blocks until it is usable.
func DialZooKeeper(hosts string, opts Options) (*ZooKeeper, error) {
	servers, chroot := ParseHosts(hosts)
	if len(servers) == 0 {
		return nil, fmt.Errorf("zookeeper: no servers in %q", hosts)
	}

	timeout := opts.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	conn, _, err := zk.Connect(servers, timeout,
		zk.WithLogger(logfFunc(logf)),
		zk.WithEventCallback(func(ev zk.Event) {
			logf("zookeeper event type=%s state=%s path=%s", ev.Type, ev.State, ev.Path)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("zookeeper: failed to connect to %s: %w", hosts, err)
	}
	return &ZooKeeper{conn: conn, chroot: chroot}, nil
}

func (z *ZooKeeper) full(p string) string {
	if z.chroot == "" {
		return p
	}
	if p == "/" {
		return z.chroot
	}
	return z.chroot + p
}

func (z *ZooKeeper) Ensure(p string) error {
	for _, current := range ancestors(z.full(p)) {
		_, err := z.conn.Create(current, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return translate("ensure", p, err)
		}
	}
	return nil
}

func (z *ZooKeeper) Delete(p string, recursive bool) error {
	if p == "/" {
		return fmt.Errorf("delete %s: cannot delete the root node", p)
	}
	if recursive {
		if err := z.deleteChildren(p); err != nil {
			return err
		}
	}
	if err := z.conn.Delete(z.full(p), -1); err != nil {
		return translate("delete", p, err)
	}
	return nil
}

// deleteChildren removes every descendant of p, deepest first.
func (z *ZooKeeper) deleteChildren(p string) error {
	children, _, err := z.conn.Children(z.full(p))
	if err != nil {
		return translate("delete", p, err)
	}
	for _, child := range children {
		childPath := joinChild(p, child)
		if err := z.deleteChildren(childPath); err != nil && !errors.Is(err, ErrNoNode) {
			return err
		}
		if err := z.conn.Delete(z.full(childPath), -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
			return translate("delete", childPath, err)
		}
	}
	return nil
}

func (z *ZooKeeper) Children(p string) ([]string, error) {
	children, _, err := z.conn.Children(z.full(p))
	if err != nil {
		return nil, translate("children", p, err)
	}
	return children, nil
}

func (z *ZooKeeper) Get(p string) ([]byte, error) {
	data, _, err := z.conn.Get(z.full(p))
	if err != nil {
		return nil, translate("get", p, err)
	}
	return data, nil
}

// Set overwrites the payload regardless of the node's current version.
func (z *ZooKeeper) Set(p string, data []byte) error {
	if _, err := z.conn.Set(z.full(p), data, -1); err != nil {
		return translate("set", p, err)
	}
	return nil
}

func (z *ZooKeeper) Close() error {
	z.conn.Close()
	return nil
}

// translate maps client errors onto the package's sentinel errors.
func translate(op, p string, err error) error {
	switch {
	case errors.Is(err, zk.ErrNoNode):
		return fmt.Errorf("%s %s: %w", op, p, ErrNoNode)
	case errors.Is(err, zk.ErrNotEmpty):
		return fmt.Errorf("%s %s: %w", op, p, ErrNotEmpty)
	default:
		return fmt.Errorf("%s %s: %w", op, p, err)
	}
}
