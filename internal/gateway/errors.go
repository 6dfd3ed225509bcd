package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindNotAuthenticated Kind = "not_authenticated"
	KindNotFound         Kind = "not_found"
	KindConstraint       Kind = "constraint"
	KindTransport        Kind = "transport"
	KindValidation       Kind = "validation"
	KindUnconfigured     Kind = "unconfigured"
)

// Failure is the only error type a Gateway returns.
type Failure struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind Kind, op, reason string) *Failure {
	return &Failure{Kind: kind, Op: op, Reason: reason}
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// Result is the uniform outcome shape surfaced to callers that only need to
// know whether a write landed.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Success: false, Error: err.Error()}
}

// Postgres SQLSTATE codes for integrity violations.
var constraintCodes = map[string]bool{
	"23502": true, // not_null_violation
	"23503": true, // foreign_key_violation
	"23505": true, // unique_violation
	"23514": true, // check_violation
}

// classify maps a driver or ORM error onto a Failure.
func classify(op string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	kind := KindTransport
	reason := err.Error()

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		kind = KindConstraint
	case errors.As(err, &pgErr):
		if constraintCodes[pgErr.Code] {
			kind = KindConstraint
		}
		reason = pgErr.Message
	case strings.Contains(reason, "constraint failed"):
		// sqlite: "UNIQUE constraint failed: ...", "FOREIGN KEY constraint failed"
		kind = KindConstraint
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindTransport
	}

	return &Failure{Kind: kind, Op: op, Reason: reason, Err: err}
}
