package orchestration

import (
	"fmt"
)

// runSafely runs f and turns a panic into an error naming the worker.
func runSafely(name string, f func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s worker panicked: %v", name, recovered)
		}
	}()

	return f()
}
