package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// Known request codes.
const (
	CodeValueTooLong         = "P2000"
	CodeRecordDoesNotExist   = "P2001"
	CodeUniqueViolation      = "P2002"
	CodeForeignKeyViolation  = "P2003"
	CodeConstraintFailed     = "P2004"
	CodeInvalidValue         = "P2007"
	CodeNullViolation        = "P2011"
	CodeRelationViolation    = "P2014"
	CodeRelatedNotFound      = "P2015"
	CodeRecordNotFound       = "P2025"
	CodeSerializationFailure = "P2034"
)

// ErrNoRowsAffected signals that an update or delete matched nothing.
var ErrNoRowsAffected = errors.New("no rows affected")

// KnownRequestError is a database failure with a stable code and metadata.
type KnownRequestError struct {
	Code    string
	Message string
	Meta    map[string]any
	Err     error
}

func (e *KnownRequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *KnownRequestError) Unwrap() error { return e.Err }

// Target lists the fields named by a unique violation.
func (e *KnownRequestError) Target() []string {
	switch t := e.Meta["target"].(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	}
	return nil
}

// ValidationError is a malformed query: unknown column, bad syntax, missing where clause.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return "invalid query: " + e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// InitializationError means the database could not be reached or authenticated.
type InitializationError struct {
	Message string
	Err     error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InitializationError) Unwrap() error { return e.Err }

var keyDetail = regexp.MustCompile(`^Key \(([^)]+)\)=`)

var usageErrors = []error{
	gorm.ErrMissingWhereClause,
	gorm.ErrUnsupportedRelation,
	gorm.ErrPrimaryKeyRequired,
	gorm.ErrModelValueRequired,
	gorm.ErrInvalidData,
	gorm.ErrInvalidField,
	gorm.ErrInvalidValue,
	gorm.ErrInvalidValueOfLength,
	gorm.ErrEmptySlice,
	gorm.ErrPreloadNotAllowed,
	gorm.ErrUnsupportedDriver,
	gorm.ErrNotImplemented,
	gorm.ErrDryRunModeUnsupported,
	gorm.ErrInvalidTransaction,
}

// Translate maps gorm and Postgres driver errors to KnownRequestError,
// ValidationError or InitializationError. Other errors are returned unchanged.
// The returned error carries a stack trace.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var kre *KnownRequestError
	var ve *ValidationError
	var ie *InitializationError
	if errors.As(err, &kre) || errors.As(err, &ve) || errors.As(err, &ie) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return known(CodeRecordDoesNotExist, "record does not exist", nil, err)
	case errors.Is(err, ErrNoRowsAffected):
		return known(CodeRecordNotFound, "record to update or delete not found", nil, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return known(CodeUniqueViolation, "unique constraint failed", map[string]any{"target": []string{}}, err)
	}
	for _, u := range usageErrors {
		if errors.Is(err, u) {
			return pkgerrors.WithStack(&ValidationError{Message: u.Error(), Err: err})
		}
	}

	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return pkgerrors.WithStack(&InitializationError{Message: "cannot connect to database", Err: err})
	}

	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return err
	}

	switch pe.Code {
	case "23505":
		return known(CodeUniqueViolation, "unique constraint failed", map[string]any{"target": uniqueTarget(pe)}, err)
	case "23503":
		return known(CodeForeignKeyViolation, "foreign key constraint failed", map[string]any{"field_name": pe.ConstraintName}, err)
	case "23001":
		return known(CodeRelationViolation, "relation violation", map[string]any{"constraint": pe.ConstraintName}, err)
	case "22001":
		return known(CodeValueTooLong, "value too long for column", map[string]any{"column_name": pe.ColumnName}, err)
	case "23502":
		return known(CodeNullViolation, "null constraint violation", map[string]any{"constraint": pe.ColumnName}, err)
	case "23514":
		return known(CodeConstraintFailed, "check constraint failed", map[string]any{"constraint": pe.ConstraintName}, err)
	case "40001":
		return known(CodeSerializationFailure, "transaction failed due to a write conflict", nil, err)
	case "22P02":
		return known(CodeInvalidValue, "invalid input value", nil, err)
	}

	if len(pe.Code) < 2 {
		return err
	}
	switch pe.Code[:2] {
	case "42":
		return pkgerrors.WithStack(&ValidationError{Message: pe.Message, Err: err})
	case "08", "28", "3D", "53":
		return pkgerrors.WithStack(&InitializationError{Message: pe.Message, Err: err})
	}
	return err
}

// RequireRelated reports a missing related record as P2015. Other errors are translated.
func RequireRelated(err error, relation string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return known(CodeRelatedNotFound, "related record not found", map[string]any{"relation": relation}, err)
	}
	return Translate(err)
}

func known(code, msg string, meta map[string]any, err error) error {
	return pkgerrors.WithStack(&KnownRequestError{Code: code, Message: msg, Meta: meta, Err: err})
}

func uniqueTarget(pe *pgconn.PgError) []string {
	if m := keyDetail.FindStringSubmatch(pe.Detail); m != nil {
		parts := strings.Split(m[1], ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.Trim(strings.TrimSpace(p), `"`))
		}
		return out
	}
	if pe.ColumnName != "" {
		return []string{pe.ColumnName}
	}
	if pe.ConstraintName != "" {
		return []string{pe.ConstraintName}
	}
	return []string{}
}
