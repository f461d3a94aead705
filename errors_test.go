package ormkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormkit/ormkit"
)

func TestQueryError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormkit.NewQueryError("User", "join", ormkit.ErrDuplicateJoin)
		assert.Equal(t, "ormkit: query User (join): ormkit: field already joined", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := ormkit.NewQueryError("Post", "limit", ormkit.ErrIllegalChain)
		assert.True(t, errors.Is(err, ormkit.ErrIllegalChain))
	})

	t.Run("IsQueryError", func(t *testing.T) {
		err := ormkit.NewQueryError("Comment", "join", ormkit.ErrNotAChildCollection)
		assert.True(t, ormkit.IsQueryError(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, ormkit.IsQueryError(wrapped))

		assert.False(t, ormkit.IsQueryError(errors.New("other error")))
		assert.False(t, ormkit.IsQueryError(nil))
	})
}

func TestSqlGenError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormkit.NewSqlGenError("User", ormkit.ErrUnknownColumn)
		assert.Equal(t, "ormkit: generating SQL for User: ormkit: unknown column reference", err.Error())
	})

	t.Run("IsSqlGenError", func(t *testing.T) {
		err := ormkit.NewSqlGenError("Post", ormkit.ErrFormNotInChain)
		assert.True(t, ormkit.IsSqlGenError(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, ormkit.IsSqlGenError(wrapped))

		assert.False(t, ormkit.IsSqlGenError(errors.New("other error")))
		assert.False(t, ormkit.IsSqlGenError(nil))
	})
}

func TestSqlExecError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormkit.NewSqlExecError("SELECT 1", errors.New("connection refused"))
		assert.Equal(t, `ormkit: executing "SELECT 1": connection refused`, err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("timeout")
		err := ormkit.NewSqlExecError("SELECT 1", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsSqlExecError", func(t *testing.T) {
		err := ormkit.NewSqlExecError("INSERT INTO users", errors.New("duplicate"))
		assert.True(t, ormkit.IsSqlExecError(err))
		assert.False(t, ormkit.IsSqlExecError(errors.New("other error")))
		assert.False(t, ormkit.IsSqlExecError(nil))
	})
}

func TestDecodeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormkit.NewDecodeError("email", ormkit.ErrNullNotNullable)
		assert.Equal(t, "ormkit: decoding column \"email\": ormkit: null value for non-nullable field", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := ormkit.NewDecodeError("id", ormkit.ErrColumnMissing)
		assert.True(t, errors.Is(err, ormkit.ErrColumnMissing))
	})

	t.Run("IsDecodeError", func(t *testing.T) {
		err := ormkit.NewDecodeError("age", ormkit.ErrColumnMissing)
		assert.True(t, ormkit.IsDecodeError(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, ormkit.IsDecodeError(wrapped))

		assert.False(t, ormkit.IsDecodeError(errors.New("other error")))
		assert.False(t, ormkit.IsDecodeError(nil))
	})
}

func TestEncodeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormkit.NewEncodeError("avatar", errors.New("unsupported literal type struct{}"))
		assert.Equal(t, `ormkit: encoding column "avatar": unsupported literal type struct{}`, err.Error())
	})

	t.Run("IsEncodeError", func(t *testing.T) {
		err := ormkit.NewEncodeError("avatar", errors.New("boom"))
		assert.True(t, ormkit.IsEncodeError(err))
		assert.False(t, ormkit.IsEncodeError(errors.New("other error")))
		assert.False(t, ormkit.IsEncodeError(nil))
	})
}

func TestSentinelErrors(t *testing.T) {
	t.Run("ErrNotFound", func(t *testing.T) {
		assert.Error(t, ormkit.ErrNotFound)
		assert.Contains(t, ormkit.ErrNotFound.Error(), "not found")
	})

	t.Run("ErrNotSingular", func(t *testing.T) {
		assert.Error(t, ormkit.ErrNotSingular)
		assert.Contains(t, ormkit.ErrNotSingular.Error(), "more than one")
	})

	t.Run("ErrTxRolledBack", func(t *testing.T) {
		assert.Error(t, ormkit.ErrTxRolledBack)
		assert.Contains(t, ormkit.ErrTxRolledBack.Error(), "transaction")
	})
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewQueryError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = ormkit.NewQueryError("User", "join", ormkit.ErrDuplicateJoin)
		}
	})

	b.Run("IsQueryError", func(b *testing.B) {
		err := ormkit.NewQueryError("User", "join", ormkit.ErrDuplicateJoin)
		for i := 0; i < b.N; i++ {
			_ = ormkit.IsQueryError(err)
		}
	})

	b.Run("NewDecodeError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = ormkit.NewDecodeError("email", ormkit.ErrColumnMissing)
		}
	})
}
