package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// Message containers.
const (
	ContainerInbox  = "Inbox"
	ContainerOutbox = "Outbox"
	ContainerUnread = "Unread"
)

// MessageRepository provides data access for direct messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Add(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) Get(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveDeleteFlags persists the per-party soft-delete flags of m.
func (r *MessageRepository) SaveDeleteFlags(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).
		Model(&db.Message{ID: m.ID}).
		Select("sender_deleted", "recipient_deleted").
		Updates(m).Error
}

// Delete physically removes the message.
func (r *MessageRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Message{}, id).Error
}

// ForUser returns one page of username's messages in container, newest first.
//
// Behavior:
//   - Inbox: received and not hidden by the recipient.
//   - Outbox: sent and not hidden by the sender.
//   - Unread (default): received, not hidden, never read.
func (r *MessageRepository) ForUser(
	ctx context.Context,
	username, container string,
	page pagination.Params,
) ([]db.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&db.Message{})
	switch container {
	case ContainerInbox:
		query = query.Where("recipient_username = ? AND recipient_deleted = ?", username, false)
	case ContainerOutbox:
		query = query.Where("sender_username = ? AND sender_deleted = ?", username, false)
	default:
		query = query.Where("recipient_username = ? AND recipient_deleted = ? AND date_read IS NULL", username, false)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []db.Message
	err := query.
		Order("message_sent DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&msgs).Error
	return msgs, total, err
}

// Thread returns the conversation between current and other, oldest first.
// Messages current has hidden are left out.
func (r *MessageRepository) Thread(ctx context.Context, current, other string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where(
			"(sender_username = ? AND recipient_username = ? AND sender_deleted = ?) OR "+
				"(sender_username = ? AND recipient_username = ? AND recipient_deleted = ?)",
			current, other, false,
			other, current, false,
		).
		Order("message_sent").
		Order("id").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead stamps date_read on the unread messages among ids.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id IN ? AND date_read IS NULL", ids).
		Update("date_read", at).Error
}
