package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "wrapped not found", err: fmt.Errorf("first: %w", gorm.ErrRecordNotFound), want: ErrNotFound},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, want: ErrConflict},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}, want: ErrConflict},
		{name: "sqlite unique violation", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), want: ErrConflict},
		{name: "postgres other error", err: &pq.Error{Code: "57P01"}, want: ErrUnavailable},
		{name: "driver fault", err: errors.New("sql: database is closed"), want: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	assert.NoError(t, classify(nil))
}
