package internal_entity

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Password stores the bcrypt hash, never the
// plain text, and is excluded from JSON.
type User struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	Email       string    `json:"email" gorm:"column:email;type:varchar(320);not null;uniqueIndex"`
	Password    string    `json:"-" gorm:"column:password;type:varchar(100);not null"`
	Name        string    `json:"name" gorm:"column:name;type:varchar(200);not null;default:''"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.CreatedDate.IsZero() {
		u.CreatedDate = time.Now()
	}
	return nil
}
