package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chatrelay-be/internal/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		reason string
	}{
		{"record not found", gorm.ErrRecordNotFound, KindNotFound, "record not found"},
		{"duplicated key", gorm.ErrDuplicatedKey, KindConstraint, "duplicated key not allowed"},
		{"pg unique", &pgconn.PgError{Code: "23505", Message: "duplicate key value"}, KindConstraint, "duplicate key value"},
		{"pg foreign key", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23503", Message: "fk"}), KindConstraint, "fk"},
		{"pg other", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, KindTransport, "relation does not exist"},
		{"sqlite unique", errors.New("UNIQUE constraint failed: chatbots.id"), KindConstraint, "UNIQUE constraint failed: chatbots.id"},
		{"deadline", context.DeadlineExceeded, KindTransport, "context deadline exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classify("Op", tt.err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.reason, f.Reason)
			assert.Equal(t, "Op", f.Op)
		})
	}
}

func TestClassifyKeepsExistingFailure(t *testing.T) {
	orig := newFailure(KindValidation, "CreateMessage", "Missing message ID")
	assert.Same(t, orig, classify("Other", orig))
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, Result{Success: true}, ResultOf(nil))
	assert.Equal(t, Result{Success: false, Error: "boom"}, ResultOf(errors.New("boom")))
}

func TestGuardRecoversPanics(t *testing.T) {
	gw := &GormGateway{logger: logger.NewNopLogger()}
	err := gw.guard("Explode", func() error {
		panic("nil map")
	})
	assert.True(t, IsKind(err, KindTransport))
	assert.Contains(t, err.Error(), "nil map")
}
