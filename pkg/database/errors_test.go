package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslatePgErrors(t *testing.T) {
	cases := []struct {
		name string
		pg   *pgconn.PgError
		code string
	}{
		{"unique", &pgconn.PgError{Code: "23505", Detail: "Key (email)=(a@b.c) already exists."}, CodeUniqueViolation},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"}, CodeForeignKeyViolation},
		{"restrict", &pgconn.PgError{Code: "23001"}, CodeRelationViolation},
		{"too long", &pgconn.PgError{Code: "22001", ColumnName: "name"}, CodeValueTooLong},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, CodeNullViolation},
		{"check", &pgconn.PgError{Code: "23514"}, CodeConstraintFailed},
		{"serialization", &pgconn.PgError{Code: "40001"}, CodeSerializationFailure},
		{"bad text", &pgconn.PgError{Code: "22P02"}, CodeInvalidValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Translate(fmt.Errorf("exec: %w", tc.pg))
			var kre *KnownRequestError
			require.ErrorAs(t, err, &kre)
			require.Equal(t, tc.code, kre.Code)
			require.ErrorIs(t, err, tc.pg)
		})
	}
}

func TestTranslateUniqueTarget(t *testing.T) {
	err := Translate(&pgconn.PgError{Code: "23505", Detail: `Key (tenant_id, "sku")=(1, X) already exists.`})
	var kre *KnownRequestError
	require.ErrorAs(t, err, &kre)
	require.Equal(t, []string{"tenant_id", "sku"}, kre.Target())

	err = Translate(&pgconn.PgError{Code: "23505", ConstraintName: "items_sku_key"})
	require.ErrorAs(t, err, &kre)
	require.Equal(t, []string{"items_sku_key"}, kre.Target())
}

func TestTargetLooseMeta(t *testing.T) {
	kre := &KnownRequestError{Code: CodeUniqueViolation, Meta: map[string]any{"target": []any{"email", 3}}}
	require.Equal(t, []string{"email"}, kre.Target())

	kre.Meta["target"] = "items_sku_key"
	require.Equal(t, []string{"items_sku_key"}, kre.Target())

	kre.Meta = nil
	require.Nil(t, kre.Target())
}

func TestTranslateClasses(t *testing.T) {
	var ve *ValidationError
	require.ErrorAs(t, Translate(&pgconn.PgError{Code: "42703", Message: `column "nope" does not exist`}), &ve)
	require.Contains(t, ve.Error(), "nope")

	var ie *InitializationError
	require.ErrorAs(t, Translate(&pgconn.PgError{Code: "28P01", Message: "password authentication failed"}), &ie)
	require.ErrorAs(t, Translate(&pgconn.PgError{Code: "3D000"}), &ie)
	require.ErrorAs(t, Translate(&pgconn.PgError{Code: "08006"}), &ie)
}

func TestTranslateGormErrors(t *testing.T) {
	var kre *KnownRequestError
	require.ErrorAs(t, Translate(gorm.ErrRecordNotFound), &kre)
	require.Equal(t, CodeRecordDoesNotExist, kre.Code)

	require.ErrorAs(t, Translate(ErrNoRowsAffected), &kre)
	require.Equal(t, CodeRecordNotFound, kre.Code)

	var ve *ValidationError
	require.ErrorAs(t, Translate(gorm.ErrMissingWhereClause), &ve)
}

func TestTranslatePassThrough(t *testing.T) {
	require.NoError(t, Translate(nil))

	plain := errors.New("boom")
	require.Same(t, plain, Translate(plain))

	unknown := &pgconn.PgError{Code: "XX000"}
	require.Same(t, error(unknown), Translate(unknown))

	already := Translate(gorm.ErrRecordNotFound)
	require.Equal(t, already, Translate(already))
}

func TestTranslateCarriesStack(t *testing.T) {
	err := Translate(gorm.ErrRecordNotFound)
	require.Contains(t, fmt.Sprintf("%+v", err), "TestTranslateCarriesStack")
}

func TestRequireRelated(t *testing.T) {
	var kre *KnownRequestError
	require.ErrorAs(t, RequireRelated(gorm.ErrRecordNotFound, "category"), &kre)
	require.Equal(t, CodeRelatedNotFound, kre.Code)
	require.Equal(t, "category", kre.Meta["relation"])

	require.ErrorAs(t, RequireRelated(&pgconn.PgError{Code: "23503"}, "category"), &kre)
	require.Equal(t, CodeForeignKeyViolation, kre.Code)
}

func TestBackoff(t *testing.T) {
	b := backoff{maxRetries: 5, delay: 500 * time.Millisecond, maxDelay: 5 * time.Second}
	require.Equal(t, 500*time.Millisecond, b.nextDelay(0))
	require.Equal(t, 2*time.Second, b.nextDelay(2))
	require.Equal(t, 5*time.Second, b.nextDelay(4))
}
