package matches

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/dating-app/internal/app"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/metrics"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/dto"
)

// Service serves precomputed matches. Scores are produced upstream and
// only read here.
type Service struct {
	appCtx *app.AppContext
	repo   *repository.MatchRepository
}

func NewMatchesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewMatchRepository(appCtx.DB),
	}
}

// GetMatches returns userID's matches, best score first, optionally
// narrowed to a gender and city.
//
// Behavior:
//   - An empty list is returned, not an error, when nothing matches.
//   - Results are cached per (user, gender, city) for the configured TTL.
//   - Cache failures fall through to the DB.
//
// Example:
//
//	svc.GetMatches(ctx, 1, "male", "paris")
func (s *Service) GetMatches(ctx context.Context, userID uint64, gender, city string) ([]dto.MatchDTO, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("user id must be positive")
	}
	gender = strings.ToLower(strings.TrimSpace(gender))
	city = strings.TrimSpace(city)

	rc := s.appCtx.RedisCache
	var key string
	if rc != nil {
		key = rc.KeyForMatches(userID, gender, city)
		var cached []dto.MatchDTO
		ok, err := rc.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Warn("match cache read failed", "key", key, "err", err)
		}
		metrics.CacheResult("matches", ok)
		if ok {
			return cached, nil
		}
	}

	rows, err := s.repo.ForUser(ctx, userID, gender, city)
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("GetMatches failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	now := time.Now().UTC()
	out := make([]dto.MatchDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.Match(r, now))
	}

	if rc != nil {
		if err := rc.SetJSON(ctx, key, out, s.appCtx.Config.Cache.MatchTTL); err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Warn("match cache write failed", "key", key, "err", err)
		}
	}
	return out, nil
}
