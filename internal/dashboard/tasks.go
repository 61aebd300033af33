package dashboard

import (
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// runSafe calls fn and turns a panic into a TaskPanicError.
func runSafe(task string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Task: task, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func goSafe(g *errgroup.Group, task string, fn func() error) {
	g.Go(func() error {
		return runSafe(task, fn)
	})
}
