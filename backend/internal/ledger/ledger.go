package ledger

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/cryptodash/backend/internal/models"
)

// PriceSource provides the latest known price sample for a symbol.
// *pricehistory.Buffer satisfies it.
type PriceSource interface {
	Latest(symbol string) (models.PriceSample, bool)
}

// Ledger holds the simulated cash balance and the history of executed orders.
type Ledger struct {
	mu       sync.Mutex
	prices   PriceSource
	starting float64
	balance  float64
	orders   []models.Order // Most recent first

	now func() time.Time
}

// Summary is a point-in-time view of the ledger for the balance card.
type Summary struct {
	StartingBalance float64 `json:"starting_balance"`
	Balance         float64 `json:"balance"`
	NetCashFlow     float64 `json:"net_cash_flow"` // Balance - StartingBalance
	Orders          int     `json:"orders"`
	Buys            int     `json:"buys"`
	Sells           int     `json:"sells"`
	BoughtTotal     float64 `json:"bought_total"`
	SoldTotal       float64 `json:"sold_total"`
}

// New creates a ledger funded with startingBalance that prices orders from prices.
func New(prices PriceSource, startingBalance float64) *Ledger {
	return &Ledger{
		prices:   prices,
		starting: startingBalance,
		balance:  startingBalance,
		orders:   make([]models.Order, 0),
		now:      time.Now,
	}
}

// PlaceOrder executes a simulated order at the latest known price of symbol.
// On success it returns the updated balance and the new order; on failure the
// ledger is unchanged and the error wraps one of the package sentinels.
//
// Sells are credited unconditionally: holdings are not tracked.
func (l *Ledger) PlaceOrder(symbol string, side models.Side, amount float64) (float64, models.Order, error) {
	symbol = models.NormalizeSymbol(symbol)

	if !side.Valid() {
		return 0, models.Order{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if !(amount > 0) || math.IsInf(amount, 1) {
		return 0, models.Order{}, fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}

	sample, ok := l.prices.Latest(symbol)
	if !ok {
		return 0, models.Order{}, fmt.Errorf("%w: %s (sync it first)", ErrNoPriceData, symbol)
	}
	total := amount * sample.Price

	l.mu.Lock()
	defer l.mu.Unlock()

	if side == models.SideBuy && total > l.balance {
		return 0, models.Order{}, fmt.Errorf("%w: required %f, available %f",
			ErrInsufficientFunds, total, l.balance)
	}

	next := l.balance + total
	if side == models.SideBuy {
		next = l.balance - total
	}
	if !isFinite(total) || !isFinite(next) {
		return 0, models.Order{}, fmt.Errorf("%w: %v at %v is out of range", ErrInvalidAmount, amount, sample.Price)
	}
	l.balance = next

	order := models.Order{
		ID:       uuid.New(),
		Side:     side,
		Symbol:   symbol,
		Amount:   amount,
		Price:    sample.Price,
		Total:    total,
		PlacedAt: l.now(),
	}
	l.orders = slices.Insert(l.orders, 0, order)

	return l.balance, order, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// StartingBalance returns the balance the ledger was funded with.
func (l *Ledger) StartingBalance() float64 {
	return l.starting
}

// Orders returns the order history, most recent first, as of the call.
// The sequence can be ranged over any number of times.
func (l *Ledger) Orders() iter.Seq[models.Order] {
	l.mu.Lock()
	snapshot := slices.Clone(l.orders)
	l.mu.Unlock()

	return func(yield func(models.Order) bool) {
		for _, order := range snapshot {
			if !yield(order) {
				return
			}
		}
	}
}

// Summary aggregates the current balance and order history.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		StartingBalance: l.starting,
		Balance:         l.balance,
		NetCashFlow:     l.balance - l.starting,
		Orders:          len(l.orders),
	}
	for _, order := range l.orders {
		switch order.Side {
		case models.SideBuy:
			s.Buys++
			s.BoughtTotal += order.Total
		case models.SideSell:
			s.Sells++
			s.SoldTotal += order.Total
		}
	}
	return s
}
