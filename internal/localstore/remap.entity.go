package localstore

// RemapEntity records the server id a placeholder was swapped for, so a
// write still holding the placeholder can be pointed at the right row.
type RemapEntity struct {
	Entity string `db:"entity" gorm:"primaryKey;column:entity"`
	OldID  int64  `db:"old_id" gorm:"primaryKey;column:old_id;autoIncrement:false"`
	NewID  int64  `db:"new_id" gorm:"column:new_id;not null"`
}

func (RemapEntity) TableName() string {
	return "id_remaps"
}
