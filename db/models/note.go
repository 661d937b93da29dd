package models

import "time"

// Note is the persisted note row. EventDate and EventTime are free-form
// strings in the canonical dd-Mon-yyyy / HH:MM forms, with "" meaning no
// date or time; they are stored verbatim from extraction.
type Note struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"column:title;type:text;size:200;not null" json:"title"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	Tags       string    `gorm:"column:tags;type:text;size:500;not null;default:''" json:"tags"`
	EventDate  string    `gorm:"column:event_date;type:text;size:50;not null;default:''" json:"event_date"`
	EventTime  string    `gorm:"column:event_time;type:text;size:20;not null;default:''" json:"event_time"`
	OrderIndex int       `gorm:"column:order_index;not null;default:0;index:idx_notes_order" json:"order_index"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Note) TableName() string { return "note" }
