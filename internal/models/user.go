package models

import "time"

// User is one identity/token association. A user whose token has been
// revoked keeps its row with an empty token column.
type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	Username string `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Token    string `gorm:"type:varchar(100);index" json:"token,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}
