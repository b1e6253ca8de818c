package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/cel"
)

// ParamDataType is the declared type of a template parameter.
type ParamDataType string

const (
	ParamString    ParamDataType = "STRING"
	ParamInteger   ParamDataType = "INTEGER"
	ParamDecimal   ParamDataType = "DECIMAL"
	ParamBoolean   ParamDataType = "BOOLEAN"
	ParamUUID      ParamDataType = "UUID"
	ParamDate      ParamDataType = "DATE"
	ParamTimestamp ParamDataType = "TIMESTAMP"
	ParamJSON      ParamDataType = "JSON"
)

func (t ParamDataType) String() string { return string(t) }

// InferParamType classifies a runtime value as a parameter data type.
// Strings are inspected for UUID, timestamp and date shapes, in that
// order, before falling back to STRING.
func InferParamType(v cel.Value) (ParamDataType, error) {
	switch t := v.(type) {
	case cel.Int, cel.UInt:
		return ParamInteger, nil
	case cel.Double, cel.Decimal:
		return ParamDecimal, nil
	case cel.Bool:
		return ParamBoolean, nil
	case *cel.Map:
		return ParamJSON, nil
	case cel.Date:
		return ParamDate, nil
	case cel.UUID:
		return ParamUUID, nil
	case cel.String:
		s := string(t)
		if _, err := uuid.Parse(s); err == nil {
			return ParamUUID, nil
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return ParamTimestamp, nil
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return ParamDate, nil
		}
		return ParamString, nil
	default:
		return "", fmt.Errorf("unsupported parameter type %s", v.Kind())
	}
}

// ParamDefinition declares one template parameter.
type ParamDefinition struct {
	Name        string          `json:"name"`
	Type        ParamDataType   `json:"type"`
	Default     *cel.Expression `json:"default,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Validate checks that a default expression, when present, evaluates
// against an empty context to a value of the declared type. This runs at
// definition-build time, not at resolution time.
func (p *ParamDefinition) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("param definition: name is required")
	}
	if p.Default == nil {
		return nil
	}
	v, err := p.Default.Evaluate(cel.NewContext())
	if err != nil {
		return fmt.Errorf("param %q: default expression: %w", p.Name, err)
	}
	inferred, err := InferParamType(v)
	if err != nil {
		return fmt.Errorf("param %q: %w", p.Name, err)
	}
	if inferred != p.Type {
		return fmt.Errorf("param %q: default expression type %s does not match declared type %s",
			p.Name, inferred, p.Type)
	}
	return nil
}

// TxInput holds the transaction-level expressions of a template.
// Effective and JournalID are mandatory; the rest are optional and simply
// skipped when absent.
type TxInput struct {
	Effective     *cel.Expression `json:"effective"`
	JournalID     *cel.Expression `json:"journal_id"`
	CorrelationID *cel.Expression `json:"correlation_id,omitempty"`
	ExternalID    *cel.Expression `json:"external_id,omitempty"`
	Description   *cel.Expression `json:"description,omitempty"`
	Metadata      *cel.Expression `json:"metadata,omitempty"`
}

// EntryInput holds the expressions of one template entry.
type EntryInput struct {
	EntryType   *cel.Expression `json:"entry_type"`
	AccountID   *cel.Expression `json:"account_id"`
	Layer       *cel.Expression `json:"layer"`
	Direction   *cel.Expression `json:"direction"`
	Units       *cel.Expression `json:"units"`
	Currency    *cel.Expression `json:"currency"`
	Description *cel.Expression `json:"description,omitempty"`
}

// TxTemplate is a stored transaction template, identified by its unique
// code. Immutable once stored; safe to cache and share across postings.
type TxTemplate struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	Description string            `json:"description,omitempty"`
	Params      []ParamDefinition `json:"params,omitempty"`
	TxInput     TxInput           `json:"tx_input"`
	Entries     []EntryInput      `json:"entries"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	Version     int32             `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTxTemplate holds the caller-supplied fields for template creation.
type NewTxTemplate struct {
	ID          uuid.UUID
	Code        string
	Description string
	Params      []ParamDefinition
	TxInput     TxInput
	Entries     []EntryInput
	Metadata    map[string]any
}

// Validate enforces the template invariants: the mandatory expressions
// are present, entries exist and every param definition is well formed.
func (n *NewTxTemplate) Validate() error {
	if n.Code == "" {
		return fmt.Errorf("tx template: code is required")
	}
	if n.TxInput.Effective == nil {
		return fmt.Errorf("tx template %q: effective expression is required", n.Code)
	}
	if n.TxInput.JournalID == nil {
		return fmt.Errorf("tx template %q: journal_id expression is required", n.Code)
	}
	if len(n.Entries) == 0 {
		return fmt.Errorf("tx template %q: at least one entry is required", n.Code)
	}
	for i, e := range n.Entries {
		if e.EntryType == nil || e.AccountID == nil || e.Layer == nil ||
			e.Direction == nil || e.Units == nil || e.Currency == nil {
			return fmt.Errorf("tx template %q: entry %d is missing a mandatory expression", n.Code, i+1)
		}
	}
	for i := range n.Params {
		if err := n.Params[i].Validate(); err != nil {
			return fmt.Errorf("tx template %q: %w", n.Code, err)
		}
	}
	return nil
}

// Normalize fills defaults for unspecified fields.
func (n *NewTxTemplate) Normalize() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
}
