package premium

import "github.com/shopspring/decimal"

// Classify buckets an order by position effect: all legs opening, all
// legs closing, or a mix (a roll). Orders without legs classify as
// rolling so they are never treated as clean opens or closes.
func Classify(o *Order) Kind {
	if len(o.Legs) == 0 {
		return KindRolling
	}

	opens, closes := 0, 0
	for _, leg := range o.Legs {
		switch leg.PositionEffect {
		case EffectOpen:
			opens++
		case EffectClose:
			closes++
		}
	}

	switch {
	case opens == len(o.Legs):
		return KindOpening
	case closes == len(o.Legs):
		return KindClosing
	default:
		return KindRolling
	}
}

// IsPremiumEligible reports whether a filled order counts toward earned
// premium. Eligible orders either sell to open (collecting premium) or
// buy to close (paying to retire a short). A pure-debit opening order
// that both buys and sells to open is a debit spread and contributes
// nothing, but the same leg shape inside a roll still counts.
func IsPremiumEligible(o *Order) bool {
	if o.State != StateFilled {
		return false
	}

	var hasSellOpen, hasBuyOpen, hasBuyClose bool
	for _, leg := range o.Legs {
		switch {
		case leg.Side == SideSell && leg.PositionEffect == EffectOpen:
			hasSellOpen = true
		case leg.Side == SideBuy && leg.PositionEffect == EffectOpen:
			hasBuyOpen = true
		case leg.Side == SideBuy && leg.PositionEffect == EffectClose:
			hasBuyClose = true
		}
	}

	if !hasSellOpen && !hasBuyClose {
		return false
	}

	if Classify(o) == KindOpening && o.Direction == DirectionDebit && hasSellOpen && hasBuyOpen {
		return false
	}

	return true
}

// SignedAmount is the premium contribution of an order: net amount times
// contract quantity, positive for credits and negative for debits.
func SignedAmount(o *Order) decimal.Decimal {
	amount := o.NetAmount.Mul(o.Quantity)
	if o.Direction == DirectionDebit {
		return amount.Neg()
	}
	return amount
}
