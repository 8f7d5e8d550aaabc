// Package dashboard holds the application state container: the cached asset
// list, the per-symbol price history and the trading ledger. Every user action
// on the dashboard maps to one method on State.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptodash/backend/internal/ledger"
	"github.com/user/cryptodash/backend/internal/models"
	"github.com/user/cryptodash/backend/internal/pricehistory"
	"github.com/user/cryptodash/backend/internal/registry"
	"github.com/user/cryptodash/backend/internal/websocket"
)

// ErrInvalidAsset is returned when an asset form is missing its symbol or name.
var ErrInvalidAsset = errors.New("symbol and name are required")

// Registry is the remote asset backend. *registry.Client satisfies it.
type Registry interface {
	List(ctx context.Context) ([]models.Asset, error)
	Create(ctx context.Context, in models.AssetInput) (*models.Asset, error)
	Update(ctx context.Context, id int, in models.AssetInput) (*models.Asset, error)
	Delete(ctx context.Context, id int) error
	Sync(ctx context.Context, symbol string) (registry.SyncResult, error)
	History(ctx context.Context, cryptoID int) ([]models.HistoryEntry, error)
}

// Publisher receives state change events. *websocket.Hub satisfies it.
type Publisher interface {
	Publish(event websocket.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(websocket.Event) {}

// State is the dashboard state container. It is created once by main and
// shared with the HTTP handlers.
type State struct {
	registry Registry
	prices   *pricehistory.Buffer
	ledger   *ledger.Ledger
	events   Publisher
	logger   *zap.Logger

	mu     sync.RWMutex
	assets []models.Asset

	now func() time.Time
}

// Card is the view of a single asset: last price, 24h change and the chart series.
type Card struct {
	Asset     *models.Asset        `json:"asset,omitempty"` // nil if the symbol is not in the asset list
	Symbol    string               `json:"symbol"`
	HasData   bool                 `json:"has_data"`
	LastPrice string               `json:"last_price,omitempty"` // 2 decimals
	Change24h string               `json:"change_24h,omitempty"` // 2 decimals, percent
	Samples   []models.PriceSample `json:"samples"`
}

// New creates a State with an empty asset cache and a ledger funded with startingBalance.
// events and logger may be nil.
func New(reg Registry, startingBalance float64, events Publisher, logger *zap.Logger) *State {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prices := pricehistory.NewBuffer()
	return &State{
		registry: reg,
		prices:   prices,
		ledger:   ledger.New(prices, startingBalance),
		events:   events,
		logger:   logger.Named("dashboard"),
		assets:   make([]models.Asset, 0),
		now:      time.Now,
	}
}

// LoadAssets fetches the asset list and replaces the cache wholesale.
// On failure the cache is left as it was.
func (s *State) LoadAssets(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	if assets == nil {
		assets = make([]models.Asset, 0)
	}

	s.mu.Lock()
	s.assets = assets
	s.mu.Unlock()

	s.events.Publish(websocket.Event{Type: websocket.EventAssets, Payload: assets})
	return slices.Clone(assets), nil
}

// Assets returns a copy of the cached asset list.
func (s *State) Assets() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.assets)
}

// CreateAsset registers an asset with the backend, then reloads the list.
func (s *State) CreateAsset(ctx context.Context, in models.AssetInput) (*models.Asset, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	asset, err := s.registry.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating asset %s: %w", in.Symbol, err)
	}
	s.logger.Info("asset created", zap.Int("id", asset.ID), zap.String("symbol", asset.Symbol))
	s.reload(ctx)
	return asset, nil
}

// UpdateAsset changes symbol and name of an asset, then reloads the list.
func (s *State) UpdateAsset(ctx context.Context, id int, in models.AssetInput) (*models.Asset, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	asset, err := s.registry.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("updating asset %d: %w", id, err)
	}
	s.logger.Info("asset updated", zap.Int("id", id), zap.String("symbol", in.Symbol))
	s.reload(ctx)
	return asset, nil
}

// DeleteAsset removes an asset, then reloads the list. Samples and orders
// recorded for its symbol are kept.
func (s *State) DeleteAsset(ctx context.Context, id int) error {
	if err := s.registry.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting asset %d: %w", id, err)
	}
	s.logger.Info("asset deleted", zap.Int("id", id))
	s.reload(ctx)
	return nil
}

// reload refreshes the cache after a successful mutation. The mutation has
// already happened on the backend, so a failed reload is only logged.
func (s *State) reload(ctx context.Context) {
	if _, err := s.LoadAssets(ctx); err != nil {
		s.logger.Warn("asset reload failed", zap.Error(err))
	}
}

// Sync fetches a fresh sample for symbol and appends it to the price history.
func (s *State) Sync(ctx context.Context, symbol string) (models.PriceSample, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.PriceSample{}, fmt.Errorf("sync: %w", ErrInvalidAsset)
	}

	res, err := s.registry.Sync(ctx, symbol)
	if err != nil {
		return models.PriceSample{}, fmt.Errorf("syncing %s: %w", symbol, err)
	}
	sample := models.PriceSample{
		Price:            res.Price,
		Volume:           res.Volume,
		PercentChange24h: res.PercentChange24h,
		CapturedAt:       s.now(),
	}
	s.prices.Append(symbol, sample)
	s.logger.Debug("sample appended",
		zap.String("symbol", symbol),
		zap.Float64("price", sample.Price),
		zap.Int("samples", s.prices.Len(symbol)),
	)

	s.events.Publish(websocket.Event{Type: websocket.EventSample, Symbol: symbol, Payload: sample})
	return sample, nil
}

// History returns the samples the backend stored for an asset. The trading
// flow never reads it.
func (s *State) History(ctx context.Context, cryptoID int) ([]models.HistoryEntry, error) {
	entries, err := s.registry.History(ctx, cryptoID)
	if err != nil {
		return nil, fmt.Errorf("loading history for asset %d: %w", cryptoID, err)
	}
	return entries, nil
}

// PlaceOrder executes a simulated order at the latest synced price.
func (s *State) PlaceOrder(symbol string, side models.Side, amount float64) (float64, models.Order, error) {
	balance, order, err := s.ledger.PlaceOrder(symbol, side, amount)
	if err != nil {
		return 0, models.Order{}, err
	}
	s.logger.Info("order executed",
		zap.String("id", order.ID.String()),
		zap.String("side", order.Side.String()),
		zap.String("symbol", order.Symbol),
		zap.Float64("amount", order.Amount),
		zap.Float64("price", order.Price),
		zap.Float64("balance", balance),
	)
	s.events.Publish(websocket.Event{Type: websocket.EventOrder, Symbol: order.Symbol, Payload: order})
	return balance, order, nil
}

// Balance returns the current cash balance.
func (s *State) Balance() float64 { return s.ledger.Balance() }

// Orders returns the order history, most recent first.
func (s *State) Orders() iter.Seq[models.Order] { return s.ledger.Orders() }

// Summary returns the ledger summary.
func (s *State) Summary() ledger.Summary { return s.ledger.Summary() }

// Latest returns the most recent sample synced for symbol.
func (s *State) Latest(symbol string) (models.PriceSample, bool) { return s.prices.Latest(symbol) }

// Card projects the state of a single symbol for display.
func (s *State) Card(symbol string) Card {
	symbol = models.NormalizeSymbol(symbol)
	card := Card{
		Symbol:  symbol,
		Samples: s.prices.Samples(symbol),
	}

	s.mu.RLock()
	for i := range s.assets {
		if strings.EqualFold(s.assets[i].Symbol, symbol) {
			asset := s.assets[i]
			card.Asset = &asset
			break
		}
	}
	s.mu.RUnlock()

	if latest, ok := s.prices.Latest(symbol); ok {
		card.HasData = true
		card.LastPrice = FormatFixed(latest.Price)
		card.Change24h = FormatFixed(latest.PercentChange24h)
	}
	return card
}

// FormatFixed renders v with two decimal places.
func FormatFixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func normalizeInput(in models.AssetInput) (models.AssetInput, error) {
	in.Symbol = models.NormalizeSymbol(in.Symbol)
	in.Name = strings.TrimSpace(in.Name)
	if in.Symbol == "" || in.Name == "" {
		return in, ErrInvalidAsset
	}
	return in, nil
}
