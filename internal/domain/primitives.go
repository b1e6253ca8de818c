package domain

// Layer is the sub-ledger within an account/currency balance representing
// a stage of fund availability.
type Layer string

const (
	LayerSettled    Layer = "SETTLED"
	LayerPending    Layer = "PENDING"
	LayerEncumbered Layer = "ENCUMBERED"
)

// ParseLayer resolves a layer name against the fixed vocabulary.
func ParseLayer(s string) (Layer, error) {
	switch Layer(s) {
	case LayerSettled, LayerPending, LayerEncumbered:
		return Layer(s), nil
	}
	return "", &UnknownLayerError{Value: s}
}

// DebitOrCredit is the direction of an entry, and doubles as an account's
// normal balance type.
type DebitOrCredit string

const (
	Debit  DebitOrCredit = "DEBIT"
	Credit DebitOrCredit = "CREDIT"
)

// ParseDebitOrCredit resolves a direction name against the fixed vocabulary.
func ParseDebitOrCredit(s string) (DebitOrCredit, error) {
	switch DebitOrCredit(s) {
	case Debit, Credit:
		return DebitOrCredit(s), nil
	}
	return "", &UnknownDirectionError{Value: s}
}

// Status is the lifecycle state of an account or journal.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusLocked Status = "LOCKED"
)
