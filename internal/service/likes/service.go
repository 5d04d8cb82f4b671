package likes

import (
	"context"
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

// Service implements likes between members.
// It contains the business logic on top of repository and cache layers.
type Service struct {
	appCtx *app.AppContext
	uow    *repository.UnitOfWork
}

// NewLikesService creates a new likes service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via UnitOfWork)
//   - RedisCache for liked-by counters, optional
func NewLikesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		uow:    repository.NewUnitOfWork(appCtx.DB),
	}
}

// ToggleLike flips whether sourceID likes targetID and reports the new state.
//
// Behavior:
//   - Both ids must be positive and different; nothing is written otherwise.
//   - Both users must exist.
//   - The existence check and the single insert or delete commit together.
//   - Two consecutive toggles restore the original state.
//   - A cached liked-by count for the target is adjusted after commit,
//     only when this call actually inserted or deleted the row.
//
// Example:
//
//	liked, err := svc.ToggleLike(ctx, 1, 2) // -> true, then false on the next call
func (s *Service) ToggleLike(ctx context.Context, sourceID, targetID uint64) (bool, error) {
	s.appCtx.Logger.Debug("ToggleLike called", "source", sourceID, "target", targetID)

	if sourceID == 0 || targetID == 0 {
		return false, svcErr.InvalidArgument("user ids must be positive")
	}
	if sourceID == targetID {
		return false, svcErr.InvalidArgument("you cannot like yourself")
	}

	var liked, changed bool
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		for _, id := range []uint64{sourceID, targetID} {
			ok, err := tx.Users.Exists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return svcErr.NotFound("user not found")
			}
		}

		exists, err := tx.Likes.Exists(ctx, sourceID, targetID)
		if err != nil {
			return err
		}
		if exists {
			changed, err = tx.Likes.Delete(ctx, sourceID, targetID)
			liked = false
		} else {
			changed, err = tx.Likes.Add(ctx, sourceID, targetID)
			liked = true
		}
		return err
	})
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("ToggleLike failed", "source", sourceID, "target", targetID, "err", err)
		return false, svcErr.Map(err)
	}

	// a concurrent toggle already wrote the same state; the counter has
	// been adjusted by that call
	if !changed {
		s.appCtx.Logger.Debug("ToggleLike no-op", "source", sourceID, "target", targetID, "liked", liked)
		return liked, nil
	}

	delta, action := int64(1), "liked"
	if !liked {
		delta, action = -1, "unliked"
	}
	metrics.LikesToggled.WithLabelValues(action).Inc()

	if s.appCtx.RedisCache != nil {
		if err := s.appCtx.RedisCache.AdjustLikeCount(ctx, targetID, delta, s.appCtx.Config.Cache.LikeCountTTL); err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Warn("like count cache update failed", "target", targetID, "err", err)
		}
	}

	s.appCtx.Logger.Debug("ToggleLike result", "source", sourceID, "target", targetID, "liked", liked)
	return liked, nil
}

// LikedIDs returns the ids of every member userID likes.
func (s *Service) LikedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids, err := s.uow.Likes.LikedIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return ids, nil
}

// GetLikes returns one page of members related to userID by predicate
// ("liked", "likedBy" or "mutual").
func (s *Service) GetLikes(ctx context.Context, userID uint64, predicate string, p pagination.Params) (pagination.PagedList[dto.MemberDTO], error) {
	switch predicate {
	case repository.PredicateLiked, repository.PredicateLikedBy, repository.PredicateMutual:
	default:
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.InvalidArgument("predicate must be liked, likedBy or mutual")
	}

	page := p.Normalize(s.appCtx.Config.Paging.DefaultPageSize, s.appCtx.Config.Paging.MaxPageSize)
	users, total, err := s.uow.Likes.Members(ctx, userID, predicate, page)
	if err != nil {
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.Map(err)
	}

	now := time.Now().UTC()
	list := pagination.NewPagedList(users, total, page)
	return pagination.Map(list, func(u db.User) dto.MemberDTO { return dto.Member(u, now) }), nil
}

// CountLikedBy returns how many members like userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss or cache failure, counts in the DB.
//  3. On DB fetch, stores the count with the configured TTL.
//
// Example:
//
//	svc.CountLikedBy(ctx, 42)
func (s *Service) CountLikedBy(ctx context.Context, userID uint64) (int64, error) {
	ttl := s.appCtx.Config.Cache.LikeCountTTL
	rc := s.appCtx.RedisCache

	if rc != nil {
		n, ok, err := rc.GetLikeCount(ctx, userID, ttl)
		if err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Warn("like count cache read failed", "user", userID, "err", err)
		}
		metrics.CacheResult("like_count", ok)
		if ok {
			return n, nil
		}
	}

	count, err := s.uow.Likes.CountLikedBy(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	if rc != nil {
		if err := rc.UpdateLikeCount(ctx, userID, count, ttl); err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Warn("like count cache write failed", "user", userID, "err", err)
		}
	}
	return count, nil
}
