package premium

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
)

// Order states reported by the brokerage. Terminal states never change
// again, everything else may still transition.
const (
	StateFilled    = "filled"
	StateCancelled = "cancelled"
	StateRejected  = "rejected"
	StateFailed    = "failed"
)

// Leg directions and effects
const (
	SideBuy     = "buy"
	SideSell    = "sell"
	EffectOpen  = "open"
	EffectClose = "close"
)

// Net amount directions
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Kind classifies a multi-leg order by the position effects of its legs
type Kind int

const (
	KindOpening Kind = iota
	KindClosing
	KindRolling
)

func (k Kind) String() string {
	switch k {
	case KindOpening:
		return "opening"
	case KindClosing:
		return "closing"
	default:
		return "rolling"
	}
}

// Leg is one parsed leg of an option order
type Leg struct {
	Side           string
	PositionEffect string
	OptionType     string
}

// Order is a parsed option order, validated at the ingestion boundary.
type Order struct {
	ID        string
	Symbol    string
	State     string
	UpdatedAt time.Time
	Quantity  decimal.Decimal
	NetAmount decimal.Decimal
	Direction string
	Legs      []Leg
}

// IsTerminal reports whether the order can no longer change state
func (o *Order) IsTerminal() bool {
	switch o.State {
	case StateFilled, StateCancelled, StateRejected, StateFailed:
		return true
	}
	return false
}

// ParseOrder validates a wire order into the typed form. Orders with a
// missing ID, symbol, timestamp or unparseable numerics are rejected.
func ParseOrder(wire robinhood.OptionOrder) (*Order, error) {
	if wire.ID == "" {
		return nil, fmt.Errorf("order has no id")
	}
	if wire.ChainSymbol == "" {
		return nil, fmt.Errorf("order %s has no chain symbol", wire.ID)
	}

	updatedAt, err := time.Parse(time.RFC3339, wire.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("order %s has unparseable updated_at %q: %w", wire.ID, wire.UpdatedAt, err)
	}

	quantity, err := decimal.NewFromString(wire.Quantity)
	if err != nil {
		return nil, fmt.Errorf("order %s has unparseable quantity %q: %w", wire.ID, wire.Quantity, err)
	}

	netAmount, err := decimal.NewFromString(wire.NetAmount)
	if err != nil {
		return nil, fmt.Errorf("order %s has unparseable net_amount %q: %w", wire.ID, wire.NetAmount, err)
	}

	legs := make([]Leg, 0, len(wire.Legs))
	for _, l := range wire.Legs {
		legs = append(legs, Leg{
			Side:           l.Side,
			PositionEffect: l.PositionEffect,
			OptionType:     l.OptionType,
		})
	}

	return &Order{
		ID:        wire.ID,
		Symbol:    wire.ChainSymbol,
		State:     wire.State,
		UpdatedAt: updatedAt,
		Quantity:  quantity,
		NetAmount: netAmount,
		Direction: wire.NetAmountDirection,
		Legs:      legs,
	}, nil
}
