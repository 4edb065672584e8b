package internal_entity

import (
	"time"

	"gorm.io/gorm"
)

// Note is a persisted note. Images holds the ordered public URLs of the
// stored image blobs; Audio is the URL of the stored recording, empty when
// the note has none.
type Note struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	Title       string    `json:"title" gorm:"column:title;type:varchar(500);not null;default:''"`
	Content     string    `json:"content" gorm:"column:content;type:text;not null;default:''"`
	Transcript  string    `json:"transcript" gorm:"column:transcript;type:text;not null;default:''"`
	IsFavorite  bool      `json:"isFavorite" gorm:"column:is_favorite;not null;default:false"`
	Images      []string  `json:"images" gorm:"column:images;type:text;serializer:json"`
	Audio       string    `json:"audio" gorm:"column:audio;type:text;not null;default:''"`
	UserId      uint64    `json:"userId" gorm:"column:user_id;type:bigint;not null;index"`
	CreatedDate time.Time `json:"createdAt" gorm:"column:created_date;type:timestamp;not null;<-:create"`
	UpdatedDate time.Time `json:"updatedAt" gorm:"column:updated_date;type:timestamp;default:null"`
}

func (Note) TableName() string {
	return "notes"
}

func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.CreatedDate.IsZero() {
		n.CreatedDate = time.Now()
	}
	if n.Images == nil {
		n.Images = []string{}
	}
	return nil
}

func (n *Note) BeforeUpdate(tx *gorm.DB) (err error) {
	n.UpdatedDate = time.Now()
	return nil
}
