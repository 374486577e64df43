package httpkit

import (
	"encoding/json"
	stderrors "errors"
	"net/http/httptest"
	"testing"

	"pagestack/internal/pkg/errors"
)

func TestWriteCodedErr(t *testing.T) {
	t.Run("validation maps to 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteCodedErr(rec, errors.Validation("missing input: provide either url or payload"))

		if rec.Code != 400 {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("body is not an error envelope: %v", err)
		}
		if env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("expected VALIDATION_ERROR, got %s", env.Error.Code)
		}
	})

	t.Run("fields surface as details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteCodedErr(rec, errors.FetchTimeout("http://example.com/doc.pdf"))

		if rec.Code != 504 {
			t.Fatalf("expected 504, got %d", rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("body is not an error envelope: %v", err)
		}
		if env.Error.Details["url"] != "http://example.com/doc.pdf" {
			t.Errorf("expected url detail, got %v", env.Error.Details)
		}
	})

	t.Run("plain error falls back to 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteCodedErr(rec, stderrors.New("boom"))

		if rec.Code != 500 {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
