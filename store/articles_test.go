package store

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestSplitDuplicates(t *testing.T) {
	t.Parallel()

	dupErr := func(codes ...int) mongo.BulkWriteException {
		var bwe mongo.BulkWriteException
		for i, code := range codes {
			bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{
				WriteError: mongo.WriteError{Index: i, Code: code, Message: "E11000 duplicate key error"},
			})
		}
		return bwe
	}

	if rejected, err := splitDuplicates(nil); len(rejected) != 0 || err != nil {
		t.Fatalf("nil error: got %v, %v", rejected, err)
	}

	rejected, err := splitDuplicates(dupErr(11000, 11000))
	if err != nil || len(rejected) != 2 {
		t.Fatalf("expected 2 duplicates and no error, got %v, %v", rejected, err)
	}
	if _, ok := rejected[1]; !ok {
		t.Fatalf("expected index 1 to be rejected, got %v", rejected)
	}

	wrapped := fmt.Errorf("insert: %w", dupErr(11000))
	if rejected, err := splitDuplicates(wrapped); err != nil || len(rejected) != 1 {
		t.Fatalf("expected wrapped duplicate to be recognised, got %v, %v", rejected, err)
	}

	mixed := dupErr(11000, 121)
	if _, err := splitDuplicates(mixed); err == nil {
		t.Fatal("expected non-duplicate write error to surface")
	}

	wc := dupErr(11000)
	wc.WriteConcernError = &mongo.WriteConcernError{Code: 64, Message: "waiting for replication timed out"}
	if _, err := splitDuplicates(wc); err == nil {
		t.Fatal("expected write concern error to surface")
	}

	down := errors.New("server selection timeout")
	if _, err := splitDuplicates(down); !errors.Is(err, down) {
		t.Fatalf("expected connection error to surface, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	if _, err := ParseID("507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("expected valid id, got %v", err)
	}
	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := ParseID(bad); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID for %q, got %v", bad, err)
		}
	}
}
