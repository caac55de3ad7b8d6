package safe

import (
	"context"

	"github.com/tubesage/tubesage/pkg/utils/logging"
)

// Go runs fn in a new goroutine and logs a recovered panic instead of
// crashing the process.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error("panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
