package members

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/imagestore"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/metrics"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/dto"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// Age bounds accepted by the member search.
const (
	MinAllowedAge = 18
	MaxAllowedAge = 100
)

// MemberParams is a member search request. Zero ages fall back to the
// allowed bounds.
type MemberParams struct {
	pagination.Params
	Gender  string
	MinAge  int
	MaxAge  int
	OrderBy string
}

// ProfileUpdate carries the fields a member may edit on their own profile.
type ProfileUpdate struct {
	KnownAs      string `json:"knownAs"`
	Introduction string `json:"introduction"`
	Interests    string `json:"interests"`
	LookingFor   string `json:"lookingFor"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// Service implements member profiles, photos and photo tags.
type Service struct {
	appCtx *app.AppContext
	uow    *repository.UnitOfWork
	now    func() time.Time
}

// NewMembersService creates the service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via UnitOfWork)
//   - Images for photo upload and removal
func NewMembersService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		uow:    repository.NewUnitOfWork(appCtx.DB),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DobWindow converts an age range into the inclusive date-of-birth window
// that contains every member whose age on today is within [minAge, maxAge].
func DobWindow(today time.Time, minAge, maxAge int) (minDob, maxDob time.Time) {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	minDob = today.AddDate(-(maxAge + 1), 0, 1)
	maxDob = today.AddDate(-minAge, 0, 0)
	return minDob, maxDob
}

// GetMembers returns one page of members for currentUsername to browse.
//
// Behavior:
//   - The requesting user is never part of the result.
//   - MinAge must be >= 18, MaxAge <= 100, and MinAge <= MaxAge.
//   - Page number is clamped to >= 1 and page size to the configured maximum.
//   - Ordered by last activity unless OrderBy is "created".
//   - An empty page is not an error.
//
// Example:
//
//	svc.GetMembers(ctx, "alice", members.MemberParams{MinAge: 25, MaxAge: 30})
func (s *Service) GetMembers(ctx context.Context, currentUsername string, p MemberParams) (pagination.PagedList[dto.MemberDTO], error) {
	s.appCtx.Logger.Debug("GetMembers called", "user", currentUsername, "gender", p.Gender,
		"min_age", p.MinAge, "max_age", p.MaxAge, "order_by", p.OrderBy)

	currentUsername = strings.ToLower(currentUsername)
	if p.MinAge == 0 {
		p.MinAge = MinAllowedAge
	}
	if p.MaxAge == 0 {
		p.MaxAge = MaxAllowedAge
	}
	if p.MinAge < MinAllowedAge || p.MaxAge > MaxAllowedAge {
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.InvalidArgument("age must be between 18 and 100")
	}
	if p.MinAge > p.MaxAge {
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.InvalidArgument("minAge cannot be greater than maxAge")
	}
	switch p.OrderBy {
	case "", repository.OrderByLastActive, repository.OrderByCreated:
	default:
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.InvalidArgument("orderBy must be lastActive or created")
	}

	page := p.Params.Normalize(s.appCtx.Config.Paging.DefaultPageSize, s.appCtx.Config.Paging.MaxPageSize)
	now := s.now()
	minDob, maxDob := DobWindow(now, p.MinAge, p.MaxAge)

	users, total, err := s.uow.Users.GetMembers(ctx, repository.MemberFilter{
		CurrentUsername: currentUsername,
		Gender:          strings.ToLower(p.Gender),
		MinDob:          minDob,
		MaxDob:          maxDob,
		OrderBy:         p.OrderBy,
		Page:            page,
	})
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("GetMembers failed", "err", err)
		return pagination.PagedList[dto.MemberDTO]{}, svcErr.Map(err)
	}

	list := pagination.NewPagedList(users, total, page)
	return pagination.Map(list, func(u db.User) dto.MemberDTO { return dto.Member(u, now) }), nil
}

// GetMember returns one profile. Unapproved photos are only visible to
// their owner.
func (s *Service) GetMember(ctx context.Context, username, currentUsername string) (dto.MemberDTO, error) {
	own := strings.EqualFold(username, currentUsername)
	u, err := s.uow.Users.GetMember(ctx, strings.ToLower(username), own)
	if err != nil {
		return dto.MemberDTO{}, notFoundOr(err, "user not found")
	}
	return dto.Member(*u, s.now()), nil
}

// UpdateProfile overwrites the editable profile fields of username.
func (s *Service) UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) error {
	username = strings.ToLower(username)

	u, err := s.uow.Users.GetByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, "user not found")
	}

	u.KnownAs = strings.TrimSpace(upd.KnownAs)
	if u.KnownAs == "" {
		u.KnownAs = u.Username
	}
	u.Introduction = upd.Introduction
	u.Interests = upd.Interests
	u.LookingFor = upd.LookingFor
	u.City = strings.TrimSpace(upd.City)
	u.Country = strings.TrimSpace(upd.Country)

	if err := s.uow.Users.UpdateProfile(ctx, u); err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("UpdateProfile failed", "user", username, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

// AddPhoto uploads a new photo for username.
//
// Behavior:
//   - The image is cropped to a square and re-encoded as JPEG before upload.
//   - The photo is stored unapproved and never becomes main here; approval
//     promotes it when the owner has no main photo.
//   - If the row cannot be written the uploaded object is removed again.
//
// Example:
//
//	photo, err := svc.AddPhoto(ctx, "alice", file)
func (s *Service) AddPhoto(ctx context.Context, username string, r io.Reader) (dto.PhotoDTO, error) {
	username = strings.ToLower(username)

	u, err := s.uow.Users.GetByUsername(ctx, username)
	if err != nil {
		return dto.PhotoDTO{}, notFoundOr(err, "user not found")
	}

	img, err := imagestore.Normalize(r, s.appCtx.Config.Storage.PhotoSize)
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Warn("AddPhoto rejected image", "user", username, "err", err)
		return dto.PhotoDTO{}, svcErr.InvalidArgument("file is not a supported image")
	}

	key := imagestore.PhotoKey(u.Username)
	url, err := s.appCtx.Images.Put(ctx, key, bytes.NewReader(img), int64(len(img)), "image/jpeg")
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("photo upload failed", "user", username, "key", key, "err", err)
		return dto.PhotoDTO{}, svcErr.Internal("photo upload failed", err)
	}

	photo := &db.Photo{URL: url, PublicID: key, UserID: u.ID}
	if err := s.uow.Photos.Add(ctx, photo); err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("AddPhoto insert failed", "user", username, "err", err)
		if delErr := s.appCtx.Images.Delete(ctx, key); delErr != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Error("orphaned photo object", "key", key, "err", delErr)
		}
		return dto.PhotoDTO{}, svcErr.Map(err)
	}

	metrics.PhotosUploaded.Inc()
	logger.Ctx(ctx, s.appCtx.Logger).Info("photo added", "user", username, "photo_id", photo.ID)
	return dto.Photo(*photo), nil
}

// SetMainPhoto makes photoID the only main photo of username.
//
// Behavior:
//   - The photo must belong to the user (NotFound otherwise).
//   - Only approved photos may become main.
//   - Clearing the previous main and setting the new one commit together.
func (s *Service) SetMainPhoto(ctx context.Context, username string, photoID uint64) error {
	username = strings.ToLower(username)

	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		u, err := tx.Users.GetByUsername(ctx, username)
		if err != nil {
			return notFoundOr(err, "user not found")
		}
		photo := ownedPhoto(u, photoID)
		if photo == nil {
			return svcErr.NotFound("photo not found")
		}
		if photo.IsMain {
			return svcErr.InvalidArgument("this is already your main photo")
		}
		if !photo.IsApproved {
			return svcErr.InvalidArgument("only approved photos can be set as main")
		}
		return tx.Photos.SetMain(ctx, u.ID, photo.ID)
	})
	if err != nil {
		return svcErr.Map(err)
	}
	logger.Ctx(ctx, s.appCtx.Logger).Info("main photo set", "user", username, "photo_id", photoID)
	return nil
}

// DeletePhoto removes a non-main photo of username from the photo host and
// then from the database.
func (s *Service) DeletePhoto(ctx context.Context, username string, photoID uint64) error {
	username = strings.ToLower(username)

	u, err := s.uow.Users.GetByUsername(ctx, username)
	if err != nil {
		return notFoundOr(err, "user not found")
	}
	photo := ownedPhoto(u, photoID)
	if photo == nil {
		return svcErr.NotFound("photo not found")
	}
	if photo.IsMain {
		return svcErr.InvalidArgument("you cannot delete your main photo")
	}

	if photo.PublicID != "" {
		if err := s.appCtx.Images.Delete(ctx, photo.PublicID); err != nil {
			logger.Ctx(ctx, s.appCtx.Logger).Error("photo host delete failed", "key", photo.PublicID, "err", err)
			return svcErr.Internal("failed to delete photo", err)
		}
	}
	if err := s.uow.Photos.Remove(ctx, photo.ID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// SetPhotoTags assigns tags to one of username's photos.
//
// Behavior:
//   - tagIDs must not be empty; repeated ids count once.
//   - A tag already on the photo is a conflict, an unknown tag is NotFound.
//   - Nothing is written unless every tag can be assigned.
func (s *Service) SetPhotoTags(ctx context.Context, username string, photoID uint64, tagIDs []uint64) (dto.PhotoDTO, error) {
	username = strings.ToLower(username)

	ids := dedupe(tagIDs)
	if len(ids) == 0 {
		return dto.PhotoDTO{}, svcErr.InvalidArgument("at least one tag is required")
	}

	var out dto.PhotoDTO
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		u, err := tx.Users.GetByUsername(ctx, username)
		if err != nil {
			return notFoundOr(err, "user not found")
		}
		photo, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return notFoundOr(err, "photo not found")
		}
		if photo.UserID != u.ID {
			return svcErr.Forbidden("photo belongs to another user")
		}

		existing, err := tx.Photos.TagIDs(ctx, photoID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			for _, have := range existing {
				if id == have {
					return svcErr.AlreadyExists("tag is already assigned to this photo")
				}
			}
		}

		found, err := tx.Tags.ExistingIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return svcErr.NotFound("tag not found")
		}

		if err := tx.Photos.AddTags(ctx, photoID, ids...); err != nil {
			return err
		}
		photo, err = tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return err
		}
		out = dto.Photo(*photo)
		return nil
	})
	if err != nil {
		return dto.PhotoDTO{}, svcErr.Map(err)
	}
	return out, nil
}

// PhotosByTag lists approved photos carrying tagID.
func (s *Service) PhotosByTag(ctx context.Context, tagID uint64) ([]dto.PhotoDTO, error) {
	if _, err := s.uow.Tags.GetByID(ctx, tagID); err != nil {
		return nil, notFoundOr(err, "tag not found")
	}
	photos, err := s.uow.Photos.ByTag(ctx, tagID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.Photos(photos), nil
}

// ApprovedPhotos lists every approved photo.
func (s *Service) ApprovedPhotos(ctx context.Context) ([]dto.PhotoDTO, error) {
	photos, err := s.uow.Photos.Approved(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.Photos(photos), nil
}

// Tags lists the tags members can attach to photos.
func (s *Service) Tags(ctx context.Context) ([]dto.TagDTO, error) {
	tags, err := s.uow.Tags.All(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.Tags(tags), nil
}

func ownedPhoto(u *db.User, photoID uint64) *db.Photo {
	for i := range u.Photos {
		if u.Photos[i].ID == photoID {
			return &u.Photos[i]
		}
	}
	return nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// notFoundOr maps a missing record to a NotFound with msg.
func notFoundOr(err error, msg string) error {
	if svcErr.KindOf(err) == svcErr.KindNotFound {
		return svcErr.NotFound(msg)
	}
	return svcErr.Map(err)
}
