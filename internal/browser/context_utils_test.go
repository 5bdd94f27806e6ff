// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestCombineContext(t *testing.T) {
	t.Run("inherits values from the tab context", func(t *testing.T) {
		tabCtx := context.WithValue(context.Background(), ctxKey("target"), "tab-1")
		combined, cancel := CombineContext(tabCtx, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(ctxKey("target")))
	})

	t.Run("canceled by the operation context", func(t *testing.T) {
		opCtx, opCancel := context.WithCancel(context.Background())
		combined, cancel := CombineContext(context.Background(), opCtx)
		defer cancel()

		opCancel()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context was not canceled")
		}
	})

	t.Run("canceled by the tab context", func(t *testing.T) {
		tabCtx, tabCancel := context.WithCancel(context.Background())
		combined, cancel := CombineContext(tabCtx, context.Background())
		defer cancel()

		tabCancel()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey("k"), "v"), time.Millisecond)
	defer cancel()
	<-parent.Done()

	detached := Detach(parent)
	require.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)
	assert.Equal(t, "v", detached.Value(ctxKey("k")))
}
