package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	if got := MetadataFor(CodeValidation).HTTPStatus; got != http.StatusBadRequest {
		t.Fatalf("validation status = %d", got)
	}
	if got := MetadataFor(CodeNotFound).HTTPStatus; got != http.StatusNotFound {
		t.Fatalf("not found status = %d", got)
	}
	if got := MetadataFor(Code("nope")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("unknown code should fall back to internal, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(CodeDependency, cause, "load payment")
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("code = %s", As(err).Code())
	}
}

func TestAsReturnsNilForForeignErrors(t *testing.T) {
	if As(errors.New("plain")) != nil {
		t.Fatal("expected nil for non-coded error")
	}
	if As(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestDumpExtractsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "wallet_transactions_pkey"}
	err := Wrap(CodeDependency, fmt.Errorf("create entry: %w", pgErr), "append ledger entry")

	dump := Dump(err)
	if dump.PGCode != "23505" {
		t.Fatalf("pg code = %q", dump.PGCode)
	}
	if dump.PGConstraint != "wallet_transactions_pkey" {
		t.Fatalf("pg constraint = %q", dump.PGConstraint)
	}
	if dump.Code != CodeDependency {
		t.Fatalf("code = %q", dump.Code)
	}
}

func TestIsSerializationFailure(t *testing.T) {
	conflict := &pgconn.PgError{Code: "40001"}
	if !IsSerializationFailure(fmt.Errorf("commit: %w", conflict)) {
		t.Fatal("expected serialization failure to be detected through wrapping")
	}
	if IsSerializationFailure(errors.New("nope")) {
		t.Fatal("plain error misclassified")
	}
}
