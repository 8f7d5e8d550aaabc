package pricehistory

import (
	"sort"
	"sync"

	"github.com/user/cryptodash/backend/internal/models"
)

// Buffer holds an append-only sequence of price samples per symbol.
// A symbol with no samples has no entry; lookups report that explicitly
// instead of handing back a zero sample.
type Buffer struct {
	mu     sync.RWMutex
	series map[string][]models.PriceSample // Key: normalized symbol, oldest first
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		series: make(map[string][]models.PriceSample),
	}
}

// Append adds a sample to the end of the symbol's sequence, creating it if absent.
// Identical samples are kept; there is no deduplication.
func (b *Buffer) Append(symbol string, sample models.PriceSample) {
	symbol = models.NormalizeSymbol(symbol)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.series[symbol] = append(b.series[symbol], sample)
}

// Latest returns the most recently appended sample for symbol.
// ok is false if nothing was ever appended for it.
func (b *Buffer) Latest(symbol string) (sample models.PriceSample, ok bool) {
	symbol = models.NormalizeSymbol(symbol)

	b.mu.RLock()
	defer b.mu.RUnlock()
	samples, exists := b.series[symbol]
	if !exists || len(samples) == 0 {
		return models.PriceSample{}, false
	}
	return samples[len(samples)-1], true
}

// Samples returns a copy of the symbol's sequence in insertion order (oldest to newest).
func (b *Buffer) Samples(symbol string) []models.PriceSample {
	symbol = models.NormalizeSymbol(symbol)

	b.mu.RLock()
	defer b.mu.RUnlock()
	samples := b.series[symbol]
	out := make([]models.PriceSample, len(samples))
	copy(out, samples)
	return out
}

// Len returns the number of samples recorded for symbol.
func (b *Buffer) Len(symbol string) int {
	symbol = models.NormalizeSymbol(symbol)

	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.series[symbol])
}

// Symbols lists every symbol with at least one sample, sorted.
func (b *Buffer) Symbols() []string {
	b.mu.RLock()
	symbols := make([]string, 0, len(b.series))
	for symbol := range b.series {
		symbols = append(symbols, symbol)
	}
	b.mu.RUnlock()

	sort.Strings(symbols)
	return symbols
}
