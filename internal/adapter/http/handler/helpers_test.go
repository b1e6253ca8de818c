package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseInt64Query(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events?after_id=9000000000", nil)
	if got := parseInt64Query(req, "after_id", 0); got != 9000000000 {
		t.Fatalf("expected after_id=9000000000, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	if got := parseInt64Query(req, "after_id", 7); got != 7 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"journal not found", domain.ErrJournalNotFound, http.StatusNotFound},
		{"template not found", domain.ErrTemplateNotFound, http.StatusNotFound},
		{"transaction not found", domain.ErrTransactionNotFound, http.StatusNotFound},
		{"balance not found", domain.ErrBalanceNotFound, http.StatusNotFound},
		{"duplicate key", domain.ErrDuplicateKey, http.StatusConflict},
		{"optimistic locking", domain.ErrOptimisticLocking, http.StatusConflict},
		{"too many parameters", domain.ErrTooManyParameters, http.StatusBadRequest},
		{
			"unbalanced transaction",
			&domain.UnbalancedTransactionError{Currency: "BTC", Residual: decimal.NewFromInt(5)},
			http.StatusBadRequest,
		},
		{
			"param type mismatch",
			&domain.ParamTypeMismatchError{Name: "amount", Expected: domain.ParamDecimal},
			http.StatusBadRequest,
		},
		{"unknown layer", &domain.UnknownLayerError{Value: "FROZEN"}, http.StatusBadRequest},
		{"unknown currency", &domain.UnknownCurrencyError{Code: "XXX"}, http.StatusBadRequest},
		{"unknown identifier", &cel.UnknownIdentError{Name: "nope"}, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestMapDomainErrorWrapped(t *testing.T) {
	err := errors.Join(errors.New("posting failed"), domain.ErrOptimisticLocking)
	if got := mapDomainError(err); got != http.StatusConflict {
		t.Fatalf("expected 409 for wrapped locking error, got %d", got)
	}
}
