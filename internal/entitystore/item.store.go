package entitystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/shopspring/decimal"
)

type ItemStore struct {
	*MutableStore[model.Item, model.ItemPatch]
}

func NewItemStore(local MutableCollection[model.Item], remote MutableEndpoint[model.Item, model.ItemPatch], ids *PlaceholderIDs) *ItemStore {
	return &ItemStore{NewMutableStore[model.Item, model.ItemPatch](local, remote, ids, Options[model.Item]{
		Name: "item",
		Load: RemoteFirst,
	})}
}

func (s *ItemStore) Add(ctx context.Context, in model.ItemInput) (model.Item, error) {
	if err := in.Validate(); err != nil {
		return model.Item{}, err
	}
	return s.Create(ctx, in.Item())
}

// Deactivate is the soft delete for items that transactions already
// reference.
func (s *ItemStore) Deactivate(ctx context.Context, id int64) (model.Item, error) {
	inactive := false
	return s.Update(ctx, id, model.ItemPatch{IsActive: &inactive})
}

// Active lists the items offered for new debts.
func (s *ItemStore) Active() []model.Item {
	var out []model.Item
	for _, it := range s.All() {
		if it.IsActive {
			out = append(out, it)
		}
	}
	return out
}

// Item resolves id against the mirror. Deactivated items still resolve so
// history and queued debts keep their lines.
func (s *ItemStore) Item(ctx context.Context, id int64) (model.Item, error) {
	it, err := s.Resolve(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return it, fmt.Errorf("%w: %d", model.ErrUnknownItem, id)
	}
	return it, err
}

// Price is the current price of an item.
func (s *ItemStore) Price(ctx context.Context, id int64) (decimal.Decimal, error) {
	it, err := s.Item(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return it.Price, nil
}
