package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/dgraph-io/badger/v3"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestRetryConflicts(t *testing.T) {
	logger := logging.NewConsoleLogger("storage", io.Discard, logging.ERROR)
	ctx := context.Background()

	t.Run("дубликат MariaDB повторяется", func(t *testing.T) {
		calls := 0
		err := retryConflicts(ctx, logger, "maria", isDuplicateEntry, func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("insert: %w", &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"})
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("постоянный конфликт badger", func(t *testing.T) {
		calls := 0
		err := retryConflicts(ctx, logger, "badger", isBadgerConflict, func() error {
			calls++
			return badger.ErrConflict
		})
		assert.ErrorIs(t, err, ErrAllocConflict)
		assert.Equal(t, maxAllocRetries, calls)
	})

	t.Run("прочие ошибки не повторяются", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := retryConflicts(ctx, logger, "maria", isDuplicateEntry, func() error {
			calls++
			return &mysql.MySQLError{Number: 1045, Message: "Access denied"}
		})
		assert.False(t, errors.Is(err, ErrAllocConflict))
		assert.Equal(t, 1, calls)

		err = retryConflicts(ctx, logger, "badger", isBadgerConflict, func() error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("отмененный контекст", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := retryConflicts(cancelled, logger, "badger", isBadgerConflict, func() error {
			t.Fatal("fn не должна вызываться")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
