package service

import (
	"context"
	"errors"
	"fmt"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"

	"go.uber.org/zap"
)

// ActivityLogService keeps deleted records restorable
type ActivityLogService struct {
	tx      TxRunner
	log     ActivityRepository
	records RecordWriter
	notify  notifier
	logger  *zap.Logger
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(tx TxRunner, log ActivityRepository, records RecordWriter, events EventPublisher) *ActivityLogService {
	return &ActivityLogService{
		tx:      tx,
		log:     log,
		records: records,
		notify:  newNotifier(events),
		logger:  util.GetLogger(),
	}
}

// RecordDeletion snapshots record by value into a new log entry. Call it
// with the same context as the delete so both commit together.
func (s *ActivityLogService) RecordDeletion(ctx context.Context, description string, record interface{}) (*models.ActivityLogItem, error) {
	item, err := models.NewDeletedRecord(description, record)
	if err != nil {
		return nil, err
	}
	item.ID = newID(prefixLog)
	item.DeletedAt = now()

	if err := s.log.CreateActivityLogItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to record deletion: %w", err)
	}

	util.EntitiesDeletedTotal.WithLabelValues(string(item.Type)).Inc()
	return item, nil
}

// List returns log entries newest first. User snapshots come back without
// their password hash.
func (s *ActivityLogService) List(ctx context.Context, filter store.ActivityFilter) ([]models.ActivityLogItem, error) {
	ctx, span := util.StartSpan(ctx, "ActivityLogService.List")
	defer span.End()

	items, err := s.log.ListActivityLog(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Redacted()
	}
	return items, nil
}

// Restore puts the snapshot of logID back under its original id and drops
// the entry. A missing entry yields ErrNotFound, so a second restore of the
// same entry changes nothing.
func (s *ActivityLogService) Restore(ctx context.Context, logID string) (item *models.ActivityLogItem, err error) {
	ctx, span := util.StartSpan(ctx, "ActivityLogService.Restore")
	defer func() { util.EndSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err = s.log.GetActivityLogItem(ctx, logID)
		if err != nil {
			return err
		}
		if err := s.reinsert(ctx, item); err != nil {
			return err
		}
		return s.log.DeleteActivityLogItem(ctx, logID)
	})
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("Restore failed", zap.String("log_id", logID), zap.Error(err))
		}
		return nil, err
	}

	util.EntitiesRestoredTotal.WithLabelValues(string(item.Type)).Inc()
	s.logger.Info("Record restored",
		zap.String("log_id", logID),
		zap.String("type", string(item.Type)),
		zap.String("entity_id", item.EntityID))

	s.notify.entityChanged(ctx, collectionOf(item.Type), item.EntityID, models.ChangeRestored)
	s.notify.entityChanged(ctx, models.CollectionActivity, logID, models.ChangeDeleted)

	redacted := item.Redacted()
	return &redacted, nil
}

func (s *ActivityLogService) reinsert(ctx context.Context, item *models.ActivityLogItem) error {
	switch item.Type {
	case models.EntityUser:
		u, err := item.DecodeUser()
		if err != nil {
			return err
		}
		return s.records.UpsertUser(ctx, u)
	case models.EntityProduct:
		p, err := item.DecodeProduct()
		if err != nil {
			return err
		}
		return s.records.UpsertProduct(ctx, p)
	case models.EntityCustomer:
		c, err := item.DecodeCustomer()
		if err != nil {
			return err
		}
		return s.records.UpsertCustomer(ctx, c)
	case models.EntityOrder:
		o, err := item.DecodeOrder()
		if err != nil {
			return err
		}
		return s.records.UpsertOrder(ctx, o)
	default:
		return fmt.Errorf("%w: log entry %s has unknown type %q", models.ErrValidation, item.ID, item.Type)
	}
}

func collectionOf(t models.EntityType) string {
	switch t {
	case models.EntityUser:
		return models.CollectionUsers
	case models.EntityProduct:
		return models.CollectionProducts
	case models.EntityCustomer:
		return models.CollectionCustomers
	case models.EntityOrder:
		return models.CollectionOrders
	}
	return string(t)
}
