package store

import (
	"fmt"
	"sort"
	"sync"
)

type memoryNode struct {
	data     []byte
	children map[string]struct{}
}

// Memory is a process-local Store. The root node always exists.
type Memory struct {
	mu    sync.Mutex
	nodes map[string]*memoryNode
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty tree containing only the root.
func NewMemory() *Memory {
	return &Memory{
		nodes: map[string]*memoryNode{
			"/": {children: map[string]struct{}{}},
		},
	}
}

func (m *Memory) Ensure(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, current := range ancestors(p) {
		if _, ok := m.nodes[current]; ok {
			continue
		}
		m.nodes[current] = &memoryNode{children: map[string]struct{}{}}
		m.nodes[parentOf(current)].children[baseName(current)] = struct{}{}
	}
	return nil
}

func (m *Memory) Delete(p string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p == "/" {
		return fmt.Errorf("delete %s: cannot delete the root node", p)
	}
	node, ok := m.nodes[p]
	if !ok {
		return fmt.Errorf("delete %s: %w", p, ErrNoNode)
	}
	if len(node.children) > 0 && !recursive {
		return fmt.Errorf("delete %s: %w", p, ErrNotEmpty)
	}
	m.removeLocked(p)
	delete(m.nodes[parentOf(p)].children, baseName(p))
	return nil
}

func (m *Memory) removeLocked(p string) {
	node := m.nodes[p]
	for child := range node.children {
		m.removeLocked(joinChild(p, child))
	}
	delete(m.nodes, p)
}

func (m *Memory) Children(p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[p]
	if !ok {
		return nil, fmt.Errorf("children %s: %w", p, ErrNoNode)
	}
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Get(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[p]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", p, ErrNoNode)
	}
	return append([]byte(nil), node.data...), nil
}

func (m *Memory) Set(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[p]
	if !ok {
		return fmt.Errorf("set %s: %w", p, ErrNoNode)
	}
	node.data = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Close() error { return nil }

func joinChild(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
