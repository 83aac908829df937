package session

import (
	"context"
	"fmt"

	"github.com/pixil98/go-bunker/internal/game"
)

// GetTraderInventory returns the stock of today's trader.
func (st *Store) GetTraderInventory(ctx context.Context, id string) ([]game.StockEntry, error) {
	s, err := st.view(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.trader.Inventory(s, s.WorldTimeMs)
}

// TradeResult is the outcome of a buy or sell.
type TradeResult struct {
	State *game.SessionState `json:"state"`
	// Entry is the stock line after a purchase.
	Entry *game.StockEntry `json:"entry,omitempty"`
	// Paid is the currency received for a sale.
	Paid int `json:"paid,omitempty"`
}

func (st *Store) Buy(ctx context.Context, id, playerID, templateID string, qty int) (*TradeResult, error) {
	res := &TradeResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		entry, err := st.trader.Buy(s, playerID, templateID, qty, now)
		if err != nil {
			return err
		}
		res.Entry = &entry
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("buying %s: %w", templateID, err)
	}
	res.State = s
	return res, nil
}

func (st *Store) Sell(ctx context.Context, id, playerID, templateID string, qty int) (*TradeResult, error) {
	res := &TradeResult{}
	s, err := st.mutate(ctx, id, withActive(func(s *game.SessionState, now int64) error {
		paid, err := st.trader.Sell(s, playerID, templateID, qty, now)
		res.Paid = paid
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("selling %s: %w", templateID, err)
	}
	res.State = s
	return res, nil
}
