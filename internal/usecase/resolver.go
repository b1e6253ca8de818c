package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
)

// TxParams are the runtime parameters a caller supplies for one posting.
type TxParams map[string]cel.Value

// ResolvedTx is the output of resolving a template against parameters:
// the transaction header and the entries in declaration order. Nothing is
// persisted yet.
type ResolvedTx struct {
	Transaction domain.NewTransaction
	Entries     []domain.NewEntry
}

// ResolveTemplate evaluates a template against params, enforcing the
// closed parameter contract and the per-currency zero-sum invariant.
// It is pure and stateless; safe to call from any goroutine.
func ResolveTemplate(template *domain.TxTemplate, params TxParams) (*ResolvedTx, error) {
	ctx, err := buildContext(template.Params, params)
	if err != nil {
		return nil, err
	}

	tx, err := resolveTxInput(template, ctx)
	if err != nil {
		return nil, err
	}

	entries, err := resolveEntries(template.Entries, ctx)
	if err != nil {
		return nil, err
	}

	return &ResolvedTx{Transaction: *tx, Entries: entries}, nil
}

// buildContext binds declared parameters (type-checked, with defaults)
// under the fixed "params" name.
func buildContext(defs []domain.ParamDefinition, params TxParams) (*cel.Context, error) {
	ctx := cel.NewContext()

	declared := make(map[string]bool, len(defs))
	for _, def := range defs {
		declared[def.Name] = true
	}
	for name := range params {
		if !declared[name] {
			return nil, fmt.Errorf("parameter %q: %w", name, domain.ErrTooManyParameters)
		}
	}

	bound := cel.NewMap()
	for _, def := range defs {
		if supplied, ok := params[def.Name]; ok {
			inferred, err := domain.InferParamType(supplied)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", def.Name, err)
			}
			if inferred != def.Type {
				return nil, &domain.ParamTypeMismatchError{Name: def.Name, Expected: def.Type}
			}
			bound.SetString(def.Name, supplied)
			continue
		}
		if def.Default != nil {
			v, err := def.Default.Evaluate(ctx)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: default: %w", def.Name, err)
			}
			bound.SetString(def.Name, v)
		}
	}

	ctx.AddVariable("params", bound)
	return ctx, nil
}

// resolveTxInput evaluates the transaction-level expressions in their
// fixed order. Absent optional expressions leave the field unset, to be
// defaulted downstream.
func resolveTxInput(template *domain.TxTemplate, ctx *cel.Context) (*domain.NewTransaction, error) {
	tx := domain.NewTransaction{TxTemplateID: template.ID}

	effectiveVal, err := template.TxInput.Effective.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("effective: %w", err)
	}
	effective, err := cel.AsDate(effectiveVal)
	if err != nil {
		return nil, fmt.Errorf("effective: %w", err)
	}
	tx.Effective = effective.Time()

	journalVal, err := template.TxInput.JournalID.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal_id: %w", err)
	}
	tx.JournalID, err = cel.AsUUID(journalVal)
	if err != nil {
		return nil, fmt.Errorf("journal_id: %w", err)
	}

	if expr := template.TxInput.CorrelationID; expr != nil {
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("correlation_id: %w", err)
		}
		tx.CorrelationID, err = cel.AsUUID(v)
		if err != nil {
			return nil, fmt.Errorf("correlation_id: %w", err)
		}
	}

	if expr := template.TxInput.ExternalID; expr != nil {
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("external_id: %w", err)
		}
		tx.ExternalID, err = asStringish(v)
		if err != nil {
			return nil, fmt.Errorf("external_id: %w", err)
		}
	}

	if expr := template.TxInput.Description; expr != nil {
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
		tx.Description, err = cel.AsString(v)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
	}

	if expr := template.TxInput.Metadata; expr != nil {
		v, err := expr.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		metadata, ok := cel.ToAny(v).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("metadata: expected map, got %s", v.Kind())
		}
		tx.Metadata = metadata
	}

	return &tx, nil
}

// resolveEntries evaluates each entry in declaration order while keeping
// a running signed total per currency: debits subtract, credits add. Any
// non-zero residual fails the whole resolution; the check is atomic over
// the full entry set.
func resolveEntries(inputs []domain.EntryInput, ctx *cel.Context) ([]domain.NewEntry, error) {
	entries := make([]domain.NewEntry, 0, len(inputs))
	totals := make(map[string]decimal.Decimal)

	for i, input := range inputs {
		entry, err := resolveEntry(&input, ctx)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		total := totals[entry.Currency.Code]
		if entry.Direction == domain.Debit {
			total = total.Sub(entry.Units)
		} else {
			total = total.Add(entry.Units)
		}
		totals[entry.Currency.Code] = total

		entries = append(entries, *entry)
	}

	for currency, residual := range totals {
		if !residual.IsZero() {
			return nil, &domain.UnbalancedTransactionError{Currency: currency, Residual: residual}
		}
	}

	return entries, nil
}

func resolveEntry(input *domain.EntryInput, ctx *cel.Context) (*domain.NewEntry, error) {
	var entry domain.NewEntry

	v, err := input.AccountID.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("account_id: %w", err)
	}
	entry.AccountID, err = cel.AsUUID(v)
	if err != nil {
		return nil, fmt.Errorf("account_id: %w", err)
	}

	v, err = input.EntryType.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("entry_type: %w", err)
	}
	entry.EntryType, err = cel.AsString(v)
	if err != nil {
		return nil, fmt.Errorf("entry_type: %w", err)
	}

	v, err = input.Layer.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("layer: %w", err)
	}
	layerName, err := cel.AsString(v)
	if err != nil {
		return nil, fmt.Errorf("layer: %w", err)
	}
	entry.Layer, err = domain.ParseLayer(layerName)
	if err != nil {
		return nil, err
	}

	v, err = input.Direction.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("direction: %w", err)
	}
	directionName, err := cel.AsString(v)
	if err != nil {
		return nil, fmt.Errorf("direction: %w", err)
	}
	entry.Direction, err = domain.ParseDebitOrCredit(directionName)
	if err != nil {
		return nil, err
	}

	v, err = input.Units.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	entry.Units, err = cel.AsDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}

	v, err = input.Currency.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("currency: %w", err)
	}
	code, err := cel.AsString(v)
	if err != nil {
		return nil, fmt.Errorf("currency: %w", err)
	}
	entry.Currency, err = domain.ParseCurrency(code)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		v, err = input.Description.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
		entry.Description, err = cel.AsString(v)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
	}

	return &entry, nil
}

// asStringish accepts strings and uuids for id-shaped fields.
func asStringish(v cel.Value) (string, error) {
	switch t := v.(type) {
	case cel.String:
		return string(t), nil
	case cel.UUID:
		return t.String(), nil
	default:
		return cel.AsString(v)
	}
}
