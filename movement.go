package syncbox

import (
	"encoding/json"
	"time"
)

// MovementKind tags a ledger entry with the direction of its quantity.
type MovementKind int16

const (
	// KindInbound increases stock: goods received into a location.
	KindInbound MovementKind = iota
	// KindCustomerReturn increases stock: a sold item coming back.
	KindCustomerReturn
	// KindTransferIn increases stock at the receiving location of a transfer.
	KindTransferIn
	// KindOutbound decreases stock: goods leaving on an order.
	KindOutbound
	// KindLoss decreases stock: breakage, theft, expiry.
	KindLoss
	// KindTransferOut decreases stock at the sending location of a transfer.
	KindTransferOut
	// KindCountAdjustment reconciles against a physical count; its signed
	// delta comes from the movement metadata, not from Quantity.
	KindCountAdjustment
)

// String returns a stable label for persisting and logging the kind.
func (k MovementKind) String() string {
	switch k {
	case KindInbound:
		return "INBOUND"
	case KindCustomerReturn:
		return "CUSTOMER_RETURN"
	case KindTransferIn:
		return "TRANSFER_IN"
	case KindOutbound:
		return "OUTBOUND"
	case KindLoss:
		return "LOSS"
	case KindTransferOut:
		return "TRANSFER_OUT"
	case KindCountAdjustment:
		return "COUNT_ADJUSTMENT"
	default:
		return "UNKNOWN"
	}
}

// ParseMovementKind maps a persisted label back to its kind.
func ParseMovementKind(s string) (MovementKind, error) {
	switch s {
	case "INBOUND":
		return KindInbound, nil
	case "CUSTOMER_RETURN":
		return KindCustomerReturn, nil
	case "TRANSFER_IN":
		return KindTransferIn, nil
	case "OUTBOUND":
		return KindOutbound, nil
	case "LOSS":
		return KindLoss, nil
	case "TRANSFER_OUT":
		return KindTransferOut, nil
	case "COUNT_ADJUSTMENT":
		return KindCountAdjustment, nil
	default:
		return 0, ErrUnknownMovementKind
	}
}

// Movement is one append-only stock ledger entry.
type Movement struct {
	ID         string
	ItemID     string
	LocationID string
	Kind       MovementKind
	// Quantity is a magnitude; direction comes from Kind. Count adjustments
	// ignore it and read their signed divergence from Meta.
	Quantity    int64
	OriginTag   string
	ReferenceID string
	Meta        json.RawMessage
	OccurredAt  time.Time
}

// Validate checks the movement's kind and quantity.
func (m Movement) Validate() error {
	if m.Kind < KindInbound || m.Kind > KindCountAdjustment {
		return ErrUnknownMovementKind
	}
	if m.Quantity < 0 {
		return ErrInvalidQuantity
	}

	return nil
}

// Delta returns the signed quantity change this movement applies to its
// (location, item) balance.
//
// Count adjustments carry their divergence in metadata under "divergence"
// (fallback "difference"); an adjustment with neither present is a zero delta.
func (m Movement) Delta() int64 {
	switch m.Kind {
	case KindInbound, KindCustomerReturn, KindTransferIn:
		return m.Quantity
	case KindOutbound, KindLoss, KindTransferOut:
		return -m.Quantity
	case KindCountAdjustment:
		return adjustmentDivergence(m.Meta)
	default:
		return 0
	}
}

// InverseKind returns the kind that undoes this movement's direction, used to
// build reversal movements. Count adjustments invert onto themselves; the
// reversal carries a negated divergence instead.
func (k MovementKind) InverseKind() MovementKind {
	switch k {
	case KindInbound:
		return KindOutbound
	case KindCustomerReturn:
		return KindOutbound
	case KindTransferIn:
		return KindTransferOut
	case KindOutbound:
		return KindInbound
	case KindLoss:
		return KindInbound
	case KindTransferOut:
		return KindTransferIn
	default:
		return KindCountAdjustment
	}
}

func adjustmentDivergence(meta json.RawMessage) int64 {
	if len(meta) == 0 {
		return 0
	}

	var decoded struct {
		Divergence *int64 `json:"divergence"`
		Difference *int64 `json:"difference"`
	}
	if err := json.Unmarshal(meta, &decoded); err != nil {
		return 0
	}
	if decoded.Divergence != nil {
		return *decoded.Divergence
	}
	if decoded.Difference != nil {
		return *decoded.Difference
	}

	return 0
}

// AdjustmentMeta builds count-adjustment metadata carrying a signed
// divergence.
func AdjustmentMeta(divergence int64) json.RawMessage {
	meta, _ := json.Marshal(struct {
		Divergence int64 `json:"divergence"`
	}{Divergence: divergence})

	return meta
}
