package localstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/denitracker/pkg/localdb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownField = errors.New("field is not indexed")
)

type record interface {
	Key() int64
	IsPending() bool
}

// reference is a column in another table that holds ids of this table and
// has to follow them through a remap.
type reference struct {
	table  string
	column string
}

// Table is the local mirror of one editable collection (customers, items).
// Rows carry a pending marker for writes the server has not accepted yet;
// offline deletes of server rows leave a tombstone.
type Table[E any, M record] struct {
	*localdb.DB
	name       string
	order      string
	columns    []string
	fields     map[string]string
	references []reference
	toEntity   func(M) *E
	toModel    func(*E) M
}

func (t *Table[E, M]) models(entities []*E) []M {
	models := make([]M, len(entities))
	for i, e := range entities {
		models[i] = t.toModel(e)
	}
	return models
}

// ToArray returns every row, pending ones included.
func (t *Table[E, M]) ToArray(ctx context.Context) ([]M, error) {
	var entities []*E
	if err := t.Read(ctx).Order(t.order).Find(&entities).Error; err != nil {
		return nil, err
	}
	return t.models(entities), nil
}

func (t *Table[E, M]) Get(ctx context.Context, id int64) (M, error) {
	var zero M
	entity := new(E)
	err := t.Read(ctx).Where("id = ?", id).First(entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return t.toModel(entity), nil
}

// WhereEquals filters on one of the indexed fields by its JSON name.
func (t *Table[E, M]) WhereEquals(ctx context.Context, field string, value any) ([]M, error) {
	column, ok := t.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, field)
	}
	var entities []*E
	if err := t.Read(ctx).Where(column+" = ?", value).Order(t.order).Find(&entities).Error; err != nil {
		return nil, err
	}
	return t.models(entities), nil
}

// Add inserts a new row. A zero key lets the database assign one, any other
// key (server ids, placeholders) is stored as given.
func (t *Table[E, M]) Add(ctx context.Context, m M) (M, error) {
	var zero M
	entity := t.toEntity(m)
	err := t.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := t.Write(ctx).Create(entity).Error; err != nil {
			return err
		}
		if m.IsPending() {
			return t.bumpSeq(ctx, t.toModel(entity).Key())
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	return t.toModel(entity), nil
}

// BulkAdd inserts rows in one statement.
func (t *Table[E, M]) BulkAdd(ctx context.Context, ms []M) error {
	if len(ms) == 0 {
		return nil
	}
	entities := make([]*E, len(ms))
	for i, m := range ms {
		entities[i] = t.toEntity(m)
	}
	return t.Write(ctx).CreateInBatches(entities, 200).Error
}

// Put upserts by id. A row that becomes pending moves to the end of the
// replay queue; a row already pending keeps its place.
func (t *Table[E, M]) Put(ctx context.Context, m M) error {
	return t.WithinTransaction(ctx, func(ctx context.Context) error {
		return t.put(ctx, m)
	})
}

func (t *Table[E, M]) BulkPut(ctx context.Context, ms []M) error {
	return t.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, m := range ms {
			if err := t.put(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Table[E, M]) put(ctx context.Context, m M) error {
	var wasPending []string
	err := t.Read(ctx).Table(t.name).Where("id = ? AND pending <> ''", m.Key()).Pluck("pending", &wasPending).Error
	if err != nil {
		return err
	}

	err = t.Write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(t.columns),
	}).Create(t.toEntity(m)).Error
	if err != nil {
		return err
	}

	if m.IsPending() && len(wasPending) == 0 {
		return t.bumpSeq(ctx, m.Key())
	}
	return nil
}

func (t *Table[E, M]) bumpSeq(ctx context.Context, id int64) error {
	return t.Write(ctx).Exec(
		"UPDATE "+t.name+" SET seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM "+t.name+") WHERE id = ?", id,
	).Error
}

// Delete removes the row. Used to mirror a delete the server accepted.
func (t *Table[E, M]) Delete(ctx context.Context, id int64) error {
	return t.Write(ctx).Delete(new(E), id).Error
}

// Discard removes the row for an offline delete. Rows the server knows
// about are tombstoned so the delete is replayed later.
func (t *Table[E, M]) Discard(ctx context.Context, id int64) error {
	return t.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := t.Write(ctx).Delete(new(E), id).Error; err != nil {
			return err
		}
		if id < 0 {
			return nil
		}
		return t.Write(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&TombstoneEntity{Entity: t.name, RecordID: id}).Error
	})
}

// Pending returns rows with an unaccepted create or update, oldest first.
func (t *Table[E, M]) Pending(ctx context.Context) ([]M, error) {
	var entities []*E
	if err := t.Read(ctx).Where("pending <> ''").Order("seq, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return t.models(entities), nil
}

// Tombstones returns ids deleted offline that the server still has.
func (t *Table[E, M]) Tombstones(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := t.Read(ctx).Model(&TombstoneEntity{}).Where("entity = ?", t.name).Order("id").Pluck("record_id", &ids).Error
	return ids, err
}

// Forget drops the tombstone once the server delete went through.
func (t *Table[E, M]) Forget(ctx context.Context, id int64) error {
	return t.Write(ctx).Where("entity = ? AND record_id = ?", t.name, id).Delete(&TombstoneEntity{}).Error
}

// Remap replaces the row keyed oldID with the server's copy, points every
// referencing row at the new key and records the swap, all in one local
// transaction.
func (t *Table[E, M]) Remap(ctx context.Context, oldID int64, m M) error {
	return t.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := t.Write(ctx).Delete(new(E), []int64{oldID, m.Key()}).Error; err != nil {
			return err
		}
		if err := t.Write(ctx).Create(t.toEntity(m)).Error; err != nil {
			return err
		}
		for _, ref := range t.references {
			err := t.Write(ctx).Table(ref.table).Where(ref.column+" = ?", oldID).Update(ref.column, m.Key()).Error
			if err != nil {
				return err
			}
		}
		return t.Write(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity"}, {Name: "old_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"new_id"}),
		}).Create(&RemapEntity{Entity: t.name, OldID: oldID, NewID: m.Key()}).Error
	})
}

// Resolve returns the row keyed id. A placeholder that was already remapped
// resolves to the row under its server id.
func (t *Table[E, M]) Resolve(ctx context.Context, id int64) (M, error) {
	m, err := t.Get(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) || id >= 0 {
		return m, err
	}
	newID, err := remapped(ctx, t.DB, t.name, id)
	if err != nil {
		return m, err
	}
	if newID == id {
		return m, ErrNotFound
	}
	return t.Get(ctx, newID)
}

// remapped follows a placeholder to its server id. Ids without a recorded
// remap are returned unchanged.
func remapped(ctx context.Context, db *localdb.DB, entity string, id int64) (int64, error) {
	if id >= 0 {
		return id, nil
	}
	var ids []int64
	err := db.Read(ctx).Model(&RemapEntity{}).Where("entity = ? AND old_id = ?", entity, id).Limit(1).Pluck("new_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return id, err
	}
	return ids[0], nil
}

// Reconcile makes the mirror equal to the server list while keeping every
// pending row and never resurrecting a tombstoned one.
func (t *Table[E, M]) Reconcile(ctx context.Context, remote []M) error {
	return t.WithinTransaction(ctx, func(ctx context.Context) error {
		var pending []int64
		if err := t.Read(ctx).Table(t.name).Where("pending <> ''").Pluck("id", &pending).Error; err != nil {
			return err
		}
		tombstones, err := t.Tombstones(ctx)
		if err != nil {
			return err
		}
		skip := make(map[int64]struct{}, len(pending)+len(tombstones))
		for _, id := range pending {
			skip[id] = struct{}{}
		}
		for _, id := range tombstones {
			skip[id] = struct{}{}
		}

		if err := t.Write(ctx).Where("pending = ''").Delete(new(E)).Error; err != nil {
			return err
		}

		fresh := make([]M, 0, len(remote))
		for _, m := range remote {
			if _, ok := skip[m.Key()]; ok {
				continue
			}
			fresh = append(fresh, m)
		}
		return t.BulkAdd(ctx, fresh)
	})
}

// MinID is the smallest key in the table, zero when empty.
func (t *Table[E, M]) MinID(ctx context.Context) (int64, error) {
	var id int64
	err := t.Read(ctx).Table(t.name).Select("COALESCE(MIN(id), 0)").Scan(&id).Error
	return id, err
}

func (t *Table[E, M]) CountPending(ctx context.Context) (int64, error) {
	var n int64
	if err := t.Read(ctx).Table(t.name).Where("pending <> ''").Count(&n).Error; err != nil {
		return 0, err
	}
	var dead int64
	if err := t.Read(ctx).Model(&TombstoneEntity{}).Where("entity = ?", t.name).Count(&dead).Error; err != nil {
		return 0, err
	}
	return n + dead, nil
}
