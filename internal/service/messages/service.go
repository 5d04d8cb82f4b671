package messages

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/metrics"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/dto"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// CreateMessage is a new direct message from the current user.
type CreateMessage struct {
	RecipientUsername string `json:"recipientUsername"`
	Content           string `json:"content"`
}

// Service implements direct messages between members.
type Service struct {
	appCtx *app.AppContext
	uow    *repository.UnitOfWork
}

func NewMessagesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		uow:    repository.NewUnitOfWork(appCtx.DB),
	}
}

// Create sends a message from senderUsername.
//
// Behavior:
//   - Messaging yourself is rejected.
//   - Content must not be blank.
//   - Both parties must exist.
//
// Example:
//
//	svc.Create(ctx, "alice", messages.CreateMessage{RecipientUsername: "bob", Content: "hi"})
func (s *Service) Create(ctx context.Context, senderUsername string, in CreateMessage) (dto.MessageDTO, error) {
	senderUsername = strings.ToLower(senderUsername)
	recipientName := strings.ToLower(strings.TrimSpace(in.RecipientUsername))
	if strings.EqualFold(senderUsername, recipientName) {
		return dto.MessageDTO{}, svcErr.InvalidArgument("you cannot send messages to yourself")
	}
	if strings.TrimSpace(in.Content) == "" {
		return dto.MessageDTO{}, svcErr.InvalidArgument("message content is required")
	}

	sender, err := s.uow.Users.GetByUsername(ctx, senderUsername)
	if err != nil {
		return dto.MessageDTO{}, notFoundOr(err, "user not found")
	}
	recipient, err := s.uow.Users.GetByUsername(ctx, recipientName)
	if err != nil {
		return dto.MessageDTO{}, notFoundOr(err, "recipient not found")
	}

	msg := &db.Message{
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
		Content:           in.Content,
		MessageSent:       time.Now().UTC(),
	}
	if err := s.uow.Messages.Add(ctx, msg); err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("Create message failed", "sender", sender.Username, "err", err)
		return dto.MessageDTO{}, svcErr.Map(err)
	}

	metrics.MessagesSent.Inc()
	return dto.Message(*msg), nil
}

// ForUser returns one page of username's messages from container
// (Inbox, Outbox or Unread; Unread when empty), newest first.
func (s *Service) ForUser(ctx context.Context, username, container string, p pagination.Params) (pagination.PagedList[dto.MessageDTO], error) {
	switch container {
	case "", repository.ContainerInbox, repository.ContainerOutbox, repository.ContainerUnread:
	default:
		return pagination.PagedList[dto.MessageDTO]{}, svcErr.InvalidArgument("container must be Inbox, Outbox or Unread")
	}

	page := p.Normalize(s.appCtx.Config.Paging.DefaultPageSize, s.appCtx.Config.Paging.MaxPageSize)
	msgs, total, err := s.uow.Messages.ForUser(ctx, strings.ToLower(username), container, page)
	if err != nil {
		return pagination.PagedList[dto.MessageDTO]{}, svcErr.Map(err)
	}
	return pagination.Map(pagination.NewPagedList(msgs, total, page), dto.Message), nil
}

// Thread returns the conversation between current and other, oldest first.
//
// Behavior:
//   - Messages in both directions are included.
//   - Messages current has deleted on their side are left out.
//   - Unread messages addressed to current are marked read in the same
//     transaction and returned with their read time.
func (s *Service) Thread(ctx context.Context, current, other string) ([]dto.MessageDTO, error) {
	current, other = strings.ToLower(current), strings.ToLower(other)

	var out []dto.MessageDTO
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		msgs, err := tx.Messages.Thread(ctx, current, other)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var unread []uint64
		for i := range msgs {
			if msgs[i].DateRead == nil && msgs[i].RecipientUsername == current {
				unread = append(unread, msgs[i].ID)
				msgs[i].DateRead = &now
			}
		}
		if err := tx.Messages.MarkRead(ctx, unread, now); err != nil {
			return err
		}

		out = make([]dto.MessageDTO, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, dto.Message(m))
		}
		return nil
	})
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("Thread failed", "current", current, "other", other, "err", err)
		return nil, svcErr.Map(err)
	}
	return out, nil
}

// Delete hides message id for username.
//
// Behavior:
//   - Only the sender or the recipient may delete (Forbidden otherwise).
//   - Only the caller's side is flagged.
//   - The row is removed once both sides have deleted it.
//
// Example:
//
//	svc.Delete(ctx, "alice", 3)
func (s *Service) Delete(ctx context.Context, username string, id uint64) error {
	username = strings.ToLower(username)

	var purged bool
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		msg, err := tx.Messages.Get(ctx, id)
		if err != nil {
			return notFoundOr(err, "message not found")
		}

		switch username {
		case msg.SenderUsername:
			msg.SenderDeleted = true
		case msg.RecipientUsername:
			msg.RecipientDeleted = true
		default:
			return svcErr.Forbidden("you cannot delete this message")
		}

		if msg.SenderDeleted && msg.RecipientDeleted {
			purged = true
			return tx.Messages.Delete(ctx, msg.ID)
		}
		return tx.Messages.SaveDeleteFlags(ctx, msg)
	})
	if err != nil {
		return svcErr.Map(err)
	}

	kind := "soft"
	if purged {
		kind = "purged"
	}
	metrics.MessagesDeleted.WithLabelValues(kind).Inc()
	s.appCtx.Logger.Debug("message deleted", "user", username, "id", id, "kind", kind)
	return nil
}

func notFoundOr(err error, msg string) error {
	if svcErr.KindOf(err) == svcErr.KindNotFound {
		return svcErr.NotFound(msg)
	}
	return svcErr.Map(err)
}
