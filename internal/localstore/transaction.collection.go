package localstore

import (
	"context"
	"errors"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/localdb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionCollection stores transactions with their line items embedded.
// Rows are never updated after insert except for the synced flag.
type TransactionCollection struct {
	*localdb.DB
}

func NewTransactionCollection(db *localdb.DB) *TransactionCollection {
	return &TransactionCollection{db}
}

func (r *TransactionCollection) withItems(ctx context.Context, entities []*TransactionEntity) ([]model.Transaction, error) {
	if len(entities) == 0 {
		return []model.Transaction{}, nil
	}
	ids := make([]int64, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}

	var lines []*TransactionItemEntity
	err := r.Read(ctx).Where("transaction_id IN ?", ids).Order("transaction_id, position").Find(&lines).Error
	if err != nil {
		return nil, err
	}
	byTx := make(map[int64][]*TransactionItemEntity, len(entities))
	for _, l := range lines {
		byTx[l.TransactionID] = append(byTx[l.TransactionID], l)
	}

	models := make([]model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e, byTx[e.ID])
	}
	return models, nil
}

func (r *TransactionCollection) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]model.Transaction, error) {
	var entities []*TransactionEntity
	if err := scope(r.Read(ctx)).Find(&entities).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, entities)
}

func (r *TransactionCollection) ToArray(ctx context.Context) ([]model.Transaction, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Order("date, seq, id")
	})
}

func (r *TransactionCollection) Get(ctx context.Context, id int64) (model.Transaction, error) {
	txs, err := r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("id = ?", id)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	if len(txs) == 0 {
		return model.Transaction{}, ErrNotFound
	}
	return txs[0], nil
}

func (r *TransactionCollection) ByCustomer(ctx context.Context, customerID int64) ([]model.Transaction, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID).Order("date, seq, id")
	})
}

// Unsynced returns every transaction the server has not accepted, in the
// order they were written.
func (r *TransactionCollection) Unsynced(ctx context.Context) ([]model.Transaction, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("synced = ?", false).Order("seq, id")
	})
}

func (r *TransactionCollection) insert(ctx context.Context, m model.Transaction) (*TransactionEntity, error) {
	entity := toTransactionEntity(m)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	err := r.Write(ctx).Exec(
		"UPDATE transactions SET seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions) WHERE id = ?", entity.ID,
	).Error
	if err != nil {
		return nil, err
	}
	if len(m.Items) > 0 {
		if err := r.Write(ctx).Create(toTransactionItemEntities(entity.ID, m.Items)).Error; err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// rebind points customer and item placeholders that were already remapped
// at their server ids.
func (r *TransactionCollection) rebind(ctx context.Context, m model.Transaction) (model.Transaction, error) {
	if !m.ReferencesPlaceholder() {
		return m, nil
	}
	customerID, err := remapped(ctx, r.DB, "customers", m.CustomerID)
	if err != nil {
		return m, err
	}
	m.CustomerID = customerID

	items := make([]model.TransactionItem, len(m.Items))
	for i, it := range m.Items {
		if it.ItemID, err = remapped(ctx, r.DB, "items", it.ItemID); err != nil {
			return m, err
		}
		items[i] = it
	}
	m.Items = items
	return m, nil
}

// Add inserts the transaction and its lines atomically and appends it to the
// replay order. Stale placeholder references are rebound in the same local
// transaction, so a remap that committed first is never missed.
func (r *TransactionCollection) Add(ctx context.Context, m model.Transaction) (model.Transaction, error) {
	var out model.Transaction
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := r.rebind(ctx, m)
		if err != nil {
			return err
		}
		entity, err := r.insert(ctx, m)
		if err != nil {
			return err
		}
		out = m
		out.ID = entity.ID
		return nil
	})
	return out, err
}

// Put upserts by id, replacing the line items.
func (r *TransactionCollection) Put(ctx context.Context, m model.Transaction) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var existing int64
		if err := r.Read(ctx).Model(&TransactionEntity{}).Where("id = ?", m.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			_, err := r.insert(ctx, m)
			return err
		}

		err := r.Write(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"client_ref", "customer_id", "transaction_type", "total_amount", "date", "synced"}),
		}).Create(toTransactionEntity(m)).Error
		if err != nil {
			return err
		}
		if err := r.Write(ctx).Where("transaction_id = ?", m.ID).Delete(&TransactionItemEntity{}).Error; err != nil {
			return err
		}
		if len(m.Items) > 0 {
			return r.Write(ctx).Create(toTransactionItemEntities(m.ID, m.Items)).Error
		}
		return nil
	})
}

// MarkSynced flips the synced flag and touches nothing else.
func (r *TransactionCollection) MarkSynced(ctx context.Context, id int64) error {
	res := r.Write(ctx).Model(&TransactionEntity{}).Where("id = ?", id).Update("synced", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Rebind points unsynced rows still holding a remapped placeholder at the
// server id. It returns how many rows it changed.
func (r *TransactionCollection) Rebind(ctx context.Context) (int64, error) {
	var changed int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).Exec(`UPDATE transactions
			SET customer_id = (SELECT new_id FROM id_remaps WHERE entity = 'customers' AND old_id = transactions.customer_id)
			WHERE synced = 0 AND customer_id < 0
			AND customer_id IN (SELECT old_id FROM id_remaps WHERE entity = 'customers')`)
		if res.Error != nil {
			return res.Error
		}
		changed += res.RowsAffected

		res = r.Write(ctx).Exec(`UPDATE transaction_items
			SET item_id = (SELECT new_id FROM id_remaps WHERE entity = 'items' AND old_id = transaction_items.item_id)
			WHERE item_id < 0
			AND item_id IN (SELECT old_id FROM id_remaps WHERE entity = 'items')
			AND transaction_id IN (SELECT id FROM transactions WHERE synced = 0)`)
		if res.Error != nil {
			return res.Error
		}
		changed += res.RowsAffected
		return nil
	})
	return changed, err
}

// Reconcile replaces every synced row with the server list and keeps the
// unsynced queue. A queued row whose client_ref the server already holds was
// delivered before the flag could be written, so the server copy wins.
func (r *TransactionCollection) Reconcile(ctx context.Context, remote []model.Transaction) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		refs := make([]string, 0, len(remote))
		for _, m := range remote {
			if m.ClientRef != "" {
				refs = append(refs, m.ClientRef)
			}
		}

		stale := r.Read(ctx).Model(&TransactionEntity{}).Select("id").Where("synced = ?", true)
		if len(refs) > 0 {
			stale = stale.Or("client_ref IN ?", refs)
		}
		var ids []int64
		if err := stale.Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := r.Write(ctx).Where("transaction_id IN ?", ids).Delete(&TransactionItemEntity{}).Error; err != nil {
				return err
			}
			if err := r.Write(ctx).Where("id IN ?", ids).Delete(&TransactionEntity{}).Error; err != nil {
				return err
			}
		}

		for _, m := range remote {
			m.Synced = true
			if _, err := r.insert(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TransactionCollection) MinID(ctx context.Context) (int64, error) {
	var id int64
	err := r.Read(ctx).Model(&TransactionEntity{}).Select("COALESCE(MIN(id), 0)").Scan(&id).Error
	return id, err
}

func (r *TransactionCollection) CountUnsynced(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&TransactionEntity{}).Where("synced = ?", false).Count(&n).Error
	return n, err
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
