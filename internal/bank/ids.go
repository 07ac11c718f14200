package bank

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Counter hands out monotonically increasing values per sequence name.
type Counter interface {
	Next(ctx context.Context, name string) (int64, error)
}

type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

func (c *MemoryCounter) Next(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name]++
	return c.values[name], nil
}

const (
	SeqAccount = "account"
	SeqEscrow  = "escrow"
	SeqLC      = "lc"
	SeqLoan    = "loan"
)

// IDGenerator formats bank reference numbers from a Counter.
type IDGenerator struct {
	counter Counter
}

func NewIDGenerator(counter Counter) *IDGenerator {
	if counter == nil {
		counter = NewMemoryCounter()
	}
	return &IDGenerator{counter: counter}
}

func (g *IDGenerator) AccountNumber(ctx context.Context) (string, error) {
	n, err := g.counter.Next(ctx, SeqAccount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BRAC%08d", n%100000000), nil
}

func (g *IDGenerator) EscrowID(ctx context.Context) (string, error) {
	n, err := g.counter.Next(ctx, SeqEscrow)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ESC%08d", n%100000000), nil
}

// LCSequence names the per-year letter of credit sequence, e.g. lc:2024.
func LCSequence(year int) string {
	return fmt.Sprintf("%s:%d", SeqLC, year)
}

// LCNumber embeds the issue year: LC<yyyy><nnnn>. The sequence restarts each
// year and grows past four digits instead of wrapping.
func (g *IDGenerator) LCNumber(ctx context.Context, issued time.Time) (string, error) {
	n, err := g.counter.Next(ctx, LCSequence(issued.Year()))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LC%d%04d", issued.Year(), n), nil
}

func (g *IDGenerator) LoanID(ctx context.Context) (string, error) {
	n, err := g.counter.Next(ctx, SeqLoan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LOAN%06d", n%1000000), nil
}
