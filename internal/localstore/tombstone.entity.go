package localstore

// TombstoneEntity remembers an offline delete of a row the server knows
// about, so the delete can be replayed and the row is not resurrected by
// the next reconcile.
type TombstoneEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	Entity   string `db:"entity"    gorm:"column:entity;not null"`
	RecordID int64  `db:"record_id" gorm:"column:record_id;not null"`
}

func (TombstoneEntity) TableName() string {
	return "tombstones"
}
