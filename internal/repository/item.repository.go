package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository struct {
	*pg.DB
	now func() time.Time
}

func NewItemRepository(db *pg.DB) *ItemRepository {
	return &ItemRepository{DB: db, now: time.Now}
}

// ListActive returns the items offered for sale, ordered by name.
func (r *ItemRepository) ListActive(ctx context.Context) ([]model.Item, error) {
	return r.list(ctx, true)
}

// ListAll includes deactivated items, which old transactions still point at.
func (r *ItemRepository) ListAll(ctx context.Context) ([]model.Item, error) {
	return r.list(ctx, false)
}

func (r *ItemRepository) list(ctx context.Context, activeOnly bool) ([]model.Item, error) {
	q := r.Read(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var entities []*ItemEntity
	if err := q.Order("name, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toItemModels(entities), nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (model.Item, error) {
	var entity ItemEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Item{}, ErrItemNotFound
		}
		return model.Item{}, err
	}
	return toItemModel(&entity), nil
}

// Create stores the item and opens its price history.
func (r *ItemRepository) Create(ctx context.Context, it model.Item) (model.Item, error) {
	it.ID = 0
	entity := toItemEntity(it)
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return err
		}
		return r.recordPrice(ctx, entity)
	})
	if err != nil {
		return model.Item{}, err
	}
	return toItemModel(entity), nil
}

// Update applies patch under a row lock and appends to the price history
// when the price changed.
func (r *ItemRepository) Update(ctx context.Context, id int64, patch model.ItemPatch) (model.Item, error) {
	var out model.Item
	err := withRetry(ctx, func() error {
		return r.WithinTransaction(ctx, func(ctx context.Context) error {
			var entity ItemEntity
			err := r.Write(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).
				First(&entity).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrItemNotFound
				}
				return err
			}

			before := toItemModel(&entity)
			out = patch.Apply(before)
			err = r.Write(ctx).Model(&ItemEntity{}).Where("id = ?", id).
				Updates(map[string]any{"name": out.Name, "price": out.Price, "is_active": out.IsActive, "updated_at": r.now()}).Error
			if err != nil {
				return err
			}
			if !out.Price.Equal(before.Price) {
				return r.recordPrice(ctx, toItemEntity(out))
			}
			return nil
		})
	})
	return out, err
}

// Deactivate is the server side of deleting an item: line items keep their
// reference, the item just stops being listed.
func (r *ItemRepository) Deactivate(ctx context.Context, id int64) error {
	res := r.Write(ctx).Model(&ItemEntity{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": r.now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) PriceHistory(ctx context.Context, id int64) ([]PriceChange, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	var entities []*ItemPriceHistoryEntity
	if err := r.Read(ctx).Where("item_id = ?", id).Order("changed_at, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]PriceChange, len(entities))
	for i, e := range entities {
		out[i] = PriceChange{Price: e.Price, ChangedAt: e.ChangedAt.UTC()}
	}
	return out, nil
}

func (r *ItemRepository) recordPrice(ctx context.Context, e *ItemEntity) error {
	return r.Write(ctx).Create(&ItemPriceHistoryEntity{
		ItemID:    e.ID,
		Price:     e.Price,
		ChangedAt: r.now().UTC(),
	}).Error
}
