package notes

import (
	"context"
	"errors"
	"strings"

	"github.com/notegrove/notegrove/db/models"
	"gorm.io/gorm"
)

// DefaultTitle is used when extraction produced no title.
const DefaultTitle = "Untitled"

type Store struct {
	DB *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{DB: gdb}
}

// Materialize maps a structured extraction onto a persisted note. Content
// falls back to the caller's original input when the model produced no
// notes; event fields pass through verbatim. The order index is assigned
// inside the same transaction as the insert (see create), and nothing is
// visible if any step fails.
func (s *Store) Materialize(ctx context.Context, ex StructuredExtraction, fallbackContent string) (models.Note, error) {
	title := ex.Title
	if title == "" {
		title = DefaultTitle
	}
	content := ex.Notes
	if content == "" {
		content = fallbackContent
	}
	note := models.Note{
		Title:     title,
		Content:   content,
		Tags:      strings.Join(ex.Tags, ", "),
		EventDate: ex.EventDate,
		EventTime: ex.EventTime,
	}
	if err := s.Create(ctx, &note); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// Create inserts a note and assigns order_index = max(order_index)+1.
// The max read and the insert run in one transaction so two concurrent
// creates cannot receive the same position.
func (s *Store) Create(ctx context.Context, note *models.Note) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.Note{}).
			Select("COALESCE(MAX(order_index), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		note.OrderIndex = maxOrder + 1
		return tx.Create(note).Error
	})
}

// List returns all notes in caller-visible order.
func (s *Store) List(ctx context.Context) ([]models.Note, error) {
	var rows []models.Note
	err := s.DB.WithContext(ctx).
		Order("order_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) Get(ctx context.Context, id int64) (models.Note, bool, error) {
	var row models.Note
	if err := s.DB.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, false, nil
		}
		return models.Note{}, false, err
	}
	return row, true, nil
}

// NotePatch carries the mutable note fields; nil means "leave unchanged".
type NotePatch struct {
	Title     *string
	Content   *string
	Tags      *string
	EventDate *string
	EventTime *string
}

// Update applies a patch and refreshes updated_at. Returns found=false
// when the note does not exist.
func (s *Store) Update(ctx context.Context, id int64, p NotePatch) (models.Note, bool, error) {
	var row models.Note
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		if p.Title != nil {
			row.Title = *p.Title
		}
		if p.Content != nil {
			row.Content = *p.Content
		}
		if p.Tags != nil {
			row.Tags = *p.Tags
		}
		if p.EventDate != nil {
			row.EventDate = *p.EventDate
		}
		if p.EventTime != nil {
			row.EventTime = *p.EventTime
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, false, nil
		}
		return models.Note{}, false, err
	}
	return row, true, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res := s.DB.WithContext(ctx).Delete(&models.Note{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Reorder rewrites order_index to match the given id sequence, first id
// at position 1. All updates run in one transaction; an unknown id rolls
// the whole reorder back.
func (s *Store) Reorder(ctx context.Context, ids []int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			res := tx.Model(&models.Note{}).
				Where("id = ?", id).
				Update("order_index", pos+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}
