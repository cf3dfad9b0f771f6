package store

import (
	"context"

	"textile-backoffice/internal/models"

	sq "github.com/Masterminds/squirrel"
)

const activityColumns = "id, entity_type, entity_id, description, deleted_at, data"

// ActivityFilter narrows ListActivityLog
type ActivityFilter struct {
	Type   models.EntityType
	Search string
}

// CreateActivityLogItem appends a log entry
func (s *Store) CreateActivityLogItem(ctx context.Context, item *models.ActivityLogItem) error {
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO activity_log (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		item.ID, item.Type, item.EntityID, item.Description, item.DeletedAt, item.Data)
	if err != nil {
		return mapGetError(err, "activity_log", item.ID)
	}
	return nil
}

// GetActivityLogItem retrieves a log entry by ID
func (s *Store) GetActivityLogItem(ctx context.Context, id string) (*models.ActivityLogItem, error) {
	var item models.ActivityLogItem
	if err := s.get(ctx, &item, "SELECT "+activityColumns+" FROM activity_log WHERE id = ?", id); err != nil {
		return nil, mapGetError(err, "activity_log", id)
	}
	return &item, nil
}

// ListActivityLog retrieves log entries, most recently deleted first
func (s *Store) ListActivityLog(ctx context.Context, filter ActivityFilter) ([]models.ActivityLogItem, error) {
	b := sq.Select(activityColumns).From("activity_log").OrderBy("deleted_at DESC", "id DESC")
	if filter.Type != "" {
		b = b.Where(sq.Eq{"entity_type": string(filter.Type)})
	}
	if filter.Search != "" {
		b = b.Where(sq.Like{"LOWER(description)": likePattern(filter.Search)})
	}

	items := []models.ActivityLogItem{}
	err := s.selectBuilder(ctx, &items, b)
	return items, err
}

// DeleteActivityLogItem removes a log entry
func (s *Store) DeleteActivityLogItem(ctx context.Context, id string) error {
	return s.exec(ctx, "activity_log", id, "DELETE FROM activity_log WHERE id = ?", id)
}
