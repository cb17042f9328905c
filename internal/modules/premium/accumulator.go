package premium

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
)

// OrdersSource feeds the accumulator. The brokerage client implements it.
type OrdersSource interface {
	GetOptionOrders(accountNumber string, since time.Time) ([]robinhood.OptionOrder, error)
}

// Accumulator folds the option order ledger into per-ticker premium
// totals, incrementally from the last processed mark.
type Accumulator struct {
	orders OrdersSource
	log    zerolog.Logger
}

// NewAccumulator creates a new premium accumulator
func NewAccumulator(orders OrdersSource, log zerolog.Logger) *Accumulator {
	return &Accumulator{
		orders: orders,
		log:    log.With().Str("component", "premium_accumulator").Logger(),
	}
}

// Refresh fetches orders updated since the state's mark and folds them
// in. The state is mutated in place; on fetch failure it is left
// untouched so stale totals keep serving.
func (a *Accumulator) Refresh(accountNumber string, state *RunState) error {
	runID := uuid.NewString()
	log := a.log.With().Str("run_id", runID).Logger()

	wires, err := a.orders.GetOptionOrders(accountNumber, state.LastOrderMark)
	if err != nil {
		return fmt.Errorf("failed to fetch option orders: %w", err)
	}

	orders := make([]*Order, 0, len(wires))
	for _, wire := range wires {
		order, err := ParseOrder(wire)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed order")
			continue
		}
		orders = append(orders, order)
	}

	folded, pending := Fold(state, orders)
	log.Info().
		Int("fetched", len(wires)).
		Int("folded", folded).
		Int("pending", pending).
		Time("mark", state.LastOrderMark).
		Msg("Premium fold complete")

	return nil
}

// Fold applies orders newer than the state's mark to the premium totals
// and advances the mark. The mark never moves past the earliest order
// that is still in a non-terminal state, and orders at or beyond that
// point are deferred untouched to a later run, so a pending order can
// settle before anything after it is consumed. Returns the number of
// orders folded and the number deferred.
func Fold(state *RunState, orders []*Order) (folded, deferred int) {
	fresh := make([]*Order, 0, len(orders))
	for _, o := range orders {
		// The fetch window is inclusive, drop anything already consumed
		if !o.UpdatedAt.After(state.LastOrderMark) {
			continue
		}
		fresh = append(fresh, o)
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].UpdatedAt.Before(fresh[j].UpdatedAt)
	})

	var cutoff time.Time
	for _, o := range fresh {
		if !o.IsTerminal() {
			cutoff = o.UpdatedAt
			break
		}
	}

	var maxConsumed time.Time
	for _, o := range fresh {
		if !cutoff.IsZero() && !o.UpdatedAt.Before(cutoff) {
			deferred++
			continue
		}

		maxConsumed = o.UpdatedAt
		if !IsPremiumEligible(o) {
			continue
		}

		state.Premiums[o.Symbol] = state.Premiums[o.Symbol].Add(SignedAmount(o))
		folded++
	}

	newMark := maxConsumed
	if !cutoff.IsZero() {
		// Park the mark just before the pending order so it is refetched
		newMark = cutoff.Add(-time.Nanosecond)
	}
	if newMark.After(state.LastOrderMark) {
		state.LastOrderMark = newMark
	}

	return folded, deferred
}
