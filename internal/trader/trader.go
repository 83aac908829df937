// Package trader runs the travelling trader that visits the bunker on some
// lore days. Stock is a pure function of the map seed and the day.
package trader

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-errors"
)

// Config holds the trader tuning.
type Config struct {
	// EveryDays is how often the trader comes. Zero disables the trader.
	EveryDays int
	// StockSize is the number of distinct items on offer.
	StockSize int
	// SellRatio is the fraction of the base price paid for sold items.
	SellRatio float64
	// Currency is the base resource used to pay.
	Currency game.ResourceName
}

func DefaultConfig() Config {
	return Config{
		EveryDays: 3,
		StockSize: 4,
		SellRatio: 0.5,
		Currency:  game.ResourceFuel,
	}
}

func (c Config) Validate() error {
	el := errors.NewErrorList()
	if c.EveryDays < 0 {
		el.Add(fmt.Errorf("every days must not be negative"))
	}
	if c.StockSize <= 0 {
		el.Add(fmt.Errorf("stock size must be positive"))
	}
	if c.SellRatio < 0 || c.SellRatio > 1 {
		el.Add(fmt.Errorf("sell ratio must be within [0,1]"))
	}
	if !c.Currency.Valid() {
		el.Add(fmt.Errorf("invalid currency %q", c.Currency))
	}
	return el.Err()
}

type Trader struct {
	dict *game.Dictionary
	cfg  Config
}

func New(dict *game.Dictionary, cfg Config) *Trader {
	return &Trader{dict: dict, cfg: cfg}
}

// Visits reports whether the trader comes on dayID.
func (t *Trader) Visits(dayID int64) bool {
	if t.cfg.EveryDays <= 0 {
		return false
	}
	return (dayID+1)%int64(t.cfg.EveryDays) == 0
}

// Stock generates the offer for (seed, dayID). The same inputs always give
// the same stock.
func (t *Trader) Stock(seed int64, dayID int64) []game.StockEntry {
	items := t.dict.Items.GetAll()
	ids := slices.Sorted(maps.Keys(items))

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(dayID)))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	n := min(t.cfg.StockSize, len(ids))
	stock := make([]game.StockEntry, 0, n)
	for _, id := range ids[:n] {
		base := items[id].Price
		// +/-20% markup around the base price
		price := max(1, base*(80+rng.IntN(41))/100)
		stock = append(stock, game.StockEntry{
			TemplateID: id,
			Price:      price,
			Quantity:   1 + rng.IntN(5),
		})
	}
	slices.SortFunc(stock, func(a, b game.StockEntry) int {
		return cmp.Compare(a.TemplateID, b.TemplateID)
	})
	return stock
}

// Arrive opens the trader overlay for the day beginning at startMs.
func (t *Trader) Arrive(s *game.SessionState, dayID, startMs, endMs int64) {
	s.DailyEvent = &game.DailyEventState{
		ID:                   fmt.Sprintf("traders-%d", dayID),
		Type:                 game.DailyTradersArrived,
		DayID:                dayID,
		StartedAtWorldTimeMs: startMs,
		EndsAtWorldTimeMs:    endMs,
		Stock:                t.Stock(s.MapSeed, dayID),
	}
	s.AppendLog(game.LogDaily, "", "A trader caravan has arrived at the bunker.")
}

func (t *Trader) open(s *game.SessionState, now int64) (*game.DailyEventState, error) {
	de := s.DailyEvent
	if de == nil || de.Type != game.DailyTradersArrived || !de.Active(now) {
		return nil, game.ErrNoTrader
	}
	return de, nil
}

// Inventory returns today's remaining stock.
func (t *Trader) Inventory(s *game.SessionState, now int64) ([]game.StockEntry, error) {
	de, err := t.open(s, now)
	if err != nil {
		return nil, err
	}
	return slices.Clone(de.Stock), nil
}

// Buy moves qty of templateID from the trader's stock into the player's
// inventory, paying from the base currency.
func (t *Trader) Buy(s *game.SessionState, playerID, templateID string, qty int, now int64) (game.StockEntry, error) {
	if qty <= 0 {
		return game.StockEntry{}, game.ErrInvalidQuantity
	}
	de, err := t.open(s, now)
	if err != nil {
		return game.StockEntry{}, err
	}
	p, err := s.Player(playerID)
	if err != nil {
		return game.StockEntry{}, err
	}

	i := slices.IndexFunc(de.Stock, func(e game.StockEntry) bool { return e.TemplateID == templateID })
	if i < 0 {
		return game.StockEntry{}, fmt.Errorf("item %q: %w", templateID, game.ErrItemNotFound)
	}
	entry := &de.Stock[i]
	if entry.Quantity < qty {
		return game.StockEntry{}, fmt.Errorf("%d %s left: %w", entry.Quantity, templateID, game.ErrOutOfStock)
	}

	cost := entry.Price * qty
	have := s.Resources.Get(t.cfg.Currency)
	if have < cost {
		return game.StockEntry{}, fmt.Errorf("need %d %s, have %d: %w", cost, t.cfg.Currency, have, game.ErrInsufficientResources)
	}

	s.Resources.Set(t.cfg.Currency, have-cost)
	entry.Quantity -= qty
	p.Inventory.Add(templateID, qty)
	s.AppendLog(game.LogTrade, playerID, fmt.Sprintf("%s bought %d %s for %d %s", p.Name, qty, t.itemName(templateID), cost, t.cfg.Currency))

	return game.StockEntry{TemplateID: templateID, Price: entry.Price, Quantity: qty}, nil
}

// Sell moves qty of templateID out of the player's inventory and pays
// price·sellRatio per unit into the base currency.
func (t *Trader) Sell(s *game.SessionState, playerID, templateID string, qty int, now int64) (int, error) {
	if qty <= 0 {
		return 0, game.ErrInvalidQuantity
	}
	if _, err := t.open(s, now); err != nil {
		return 0, err
	}
	p, err := s.Player(playerID)
	if err != nil {
		return 0, err
	}
	item := t.dict.Items.Get(templateID)
	if item == nil {
		return 0, fmt.Errorf("item %q: %w", templateID, game.ErrItemNotFound)
	}
	if !p.Inventory.Remove(templateID, qty) {
		return 0, fmt.Errorf("have %d %s: %w", p.Inventory.Count(templateID), templateID, game.ErrInsufficientItems)
	}

	payout := int(math.Floor(float64(item.Price*qty) * t.cfg.SellRatio))
	s.Resources.Set(t.cfg.Currency, s.Resources.Get(t.cfg.Currency)+payout)
	s.AppendLog(game.LogTrade, playerID, fmt.Sprintf("%s sold %d %s for %d %s", p.Name, qty, item.Name, payout, t.cfg.Currency))

	return payout, nil
}

func (t *Trader) itemName(id string) string {
	if it := t.dict.Items.Get(id); it != nil {
		return it.Name
	}
	return id
}
