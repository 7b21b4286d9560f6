package cli

import (
	"fmt"
	"io"
	"sync"

	"dialogues/internal/authstate"
)

// terminalNavigator models the page the user is "on" as a path, the way a
// browser location would. Navigations triggered by the auth core are printed
// so the user sees where they landed.
type terminalNavigator struct {
	out io.Writer

	mu   sync.Mutex
	path string
}

func newTerminalNavigator(out io.Writer) *terminalNavigator {
	return &terminalNavigator{out: out, path: authstate.RootPath}
}

func (n *terminalNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *terminalNavigator) Navigate(path string) {
	n.mu.Lock()
	if n.path == path {
		n.mu.Unlock()
		return
	}
	n.path = path
	n.mu.Unlock()

	fmt.Fprintf(n.out, "now at %s\n", path)
}
