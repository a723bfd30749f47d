// Package shell owns the navigation sidebar of the back office. There is one
// Navigation per server, handed to whatever needs to open or close it.
package shell

import "sync"

type Item struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var items = []Item{
	{Label: "Orders", Path: "/orders"},
	{Label: "Products", Path: "/products"},
	{Label: "Customers", Path: "/customers"},
}

type Navigation struct {
	mu     sync.RWMutex
	open   bool
	active string
}

func NewNavigation() *Navigation {
	return &Navigation{active: items[0].Path}
}

// State is what the sidebar renders.
type State struct {
	Open   bool   `json:"open"`
	Active string `json:"active"`
	Items  []Item `json:"items"`
}

func (n *Navigation) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return State{Open: n.open, Active: n.active, Items: Items()}
}

func (n *Navigation) IsOpen() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.open
}

// Toggle flips the sidebar and reports whether it is now open.
func (n *Navigation) Toggle() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = !n.open
	return n.open
}

func (n *Navigation) Open() {
	n.mu.Lock()
	n.open = true
	n.mu.Unlock()
}

func (n *Navigation) Close() {
	n.mu.Lock()
	n.open = false
	n.mu.Unlock()
}

// Navigate marks path active and closes the sidebar. Unknown paths are
// rejected.
func (n *Navigation) Navigate(path string) bool {
	for _, it := range items {
		if it.Path == path {
			n.mu.Lock()
			n.active = path
			n.open = false
			n.mu.Unlock()
			return true
		}
	}
	return false
}

func Items() []Item {
	return append([]Item(nil), items...)
}
