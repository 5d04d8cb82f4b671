package admin

import (
	"context"
	"strings"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/db"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/metrics"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/dto"
)

var knownRoles = map[string]string{
	strings.ToLower(db.RoleMember):    db.RoleMember,
	strings.ToLower(db.RoleModerator): db.RoleModerator,
	strings.ToLower(db.RoleAdmin):     db.RoleAdmin,
}

// Service implements moderation, role management and the tag catalogue.
type Service struct {
	appCtx *app.AppContext
	uow    *repository.UnitOfWork
}

// NewAdminService creates the admin service with dependencies from AppContext.
func NewAdminService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		uow:    repository.NewUnitOfWork(appCtx.DB),
	}
}

// UsersWithRoles lists every user with their roles.
func (s *Service) UsersWithRoles(ctx context.Context) ([]dto.UserRolesDTO, error) {
	users, err := s.uow.Users.UsersWithRoles(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]dto.UserRolesDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserRoles(u))
	}
	return out, nil
}

// EditRoles replaces username's roles with the comma separated list roles
// and returns the resulting roles.
//
// Behavior:
//   - At least one role is required; unknown role names are rejected.
//   - Missing roles are granted and extra roles revoked in one transaction.
//
// Example:
//
//	svc.EditRoles(ctx, "bob", "Member,Moderator")
func (s *Service) EditRoles(ctx context.Context, username, roles string) ([]string, error) {
	wanted, err := parseRoles(roles)
	if err != nil {
		return nil, err
	}

	var out []string
	err = s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		u, err := tx.Users.GetByUsername(ctx, username)
		if err != nil {
			return notFoundOr(err, "user not found")
		}
		current, err := tx.Users.Roles(ctx, u.ID)
		if err != nil {
			return err
		}

		if err := tx.Users.AddRoles(ctx, u.ID, difference(wanted, current)...); err != nil {
			return err
		}
		if err := tx.Users.RemoveRoles(ctx, u.ID, difference(current, wanted)...); err != nil {
			return err
		}

		out, err = tx.Users.Roles(ctx, u.ID)
		return err
	})
	if err != nil {
		logger.Ctx(ctx, s.appCtx.Logger).Error("EditRoles failed", "user", username, "err", err)
		return nil, svcErr.Map(err)
	}
	logger.Ctx(ctx, s.appCtx.Logger).Info("roles updated", "user", username, "roles", out)
	return out, nil
}

// PhotosForModeration lists unapproved photos with their owners.
func (s *Service) PhotosForModeration(ctx context.Context) ([]repository.PhotoForModeration, error) {
	photos, err := s.uow.Photos.Unapproved(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return photos, nil
}

// ApprovePhoto approves photoID.
//
// Behavior:
//   - Approval and main-photo promotion commit together.
//   - The photo becomes main when its owner has no main photo yet.
func (s *Service) ApprovePhoto(ctx context.Context, photoID uint64) error {
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		photo, err := tx.Photos.GetByID(ctx, photoID)
		if err != nil {
			return notFoundOr(err, "photo not found")
		}
		if err := tx.Photos.Approve(ctx, photo.ID); err != nil {
			return err
		}

		hasMain, err := tx.Photos.HasMain(ctx, photo.UserID)
		if err != nil {
			return err
		}
		if !hasMain {
			return tx.Photos.SetMain(ctx, photo.UserID, photo.ID)
		}
		return nil
	})
	if err != nil {
		return svcErr.Map(err)
	}
	metrics.PhotosModerated.WithLabelValues("approved").Inc()
	return nil
}

// RejectPhoto removes photoID from the photo host and then the database.
func (s *Service) RejectPhoto(ctx context.Context, photoID uint64) error {
	photo, err := s.uow.Photos.GetByID(ctx, photoID)
	if err != nil {
		return notFoundOr(err, "photo not found")
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
	metrics.PhotosModerated.WithLabelValues("rejected").Inc()
	return nil
}

// Tags lists the tag catalogue.
func (s *Service) Tags(ctx context.Context) ([]dto.TagDTO, error) {
	tags, err := s.uow.Tags.All(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.Tags(tags), nil
}

// CreateTag adds a tag. Names are unique ignoring case.
func (s *Service) CreateTag(ctx context.Context, name string) (dto.TagDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dto.TagDTO{}, svcErr.InvalidArgument("tag name is required")
	}
	if len(name) > 50 {
		return dto.TagDTO{}, svcErr.InvalidArgument("tag name must be at most 50 characters")
	}

	exists, err := s.uow.Tags.ExistsByName(ctx, name)
	if err != nil {
		return dto.TagDTO{}, svcErr.Map(err)
	}
	if exists {
		return dto.TagDTO{}, svcErr.AlreadyExists("tag already exists")
	}

	tag := &db.Tag{Name: name}
	if err := s.uow.Tags.Add(ctx, tag); err != nil {
		return dto.TagDTO{}, svcErr.Map(err)
	}
	return dto.Tag(*tag), nil
}

// DeleteTag removes a tag and its photo assignments.
func (s *Service) DeleteTag(ctx context.Context, tagID uint64) error {
	var existed bool
	err := s.uow.Do(ctx, func(tx *repository.UnitOfWork) error {
		var err error
		existed, err = tx.Tags.Remove(ctx, tagID)
		return err
	})
	if err != nil {
		return svcErr.Map(err)
	}
	if !existed {
		return svcErr.NotFound("tag not found")
	}
	return nil
}

// AddTagToPhoto assigns tagID to photoID. Assigning twice is a no-op.
func (s *Service) AddTagToPhoto(ctx context.Context, photoID, tagID uint64) error {
	if _, err := s.uow.Photos.GetByID(ctx, photoID); err != nil {
		return notFoundOr(err, "photo not found")
	}
	if _, err := s.uow.Tags.GetByID(ctx, tagID); err != nil {
		return notFoundOr(err, "tag not found")
	}

	assigned, err := s.uow.Photos.TagIDs(ctx, photoID)
	if err != nil {
		return svcErr.Map(err)
	}
	for _, id := range assigned {
		if id == tagID {
			return nil
		}
	}
	if err := s.uow.Photos.AddTags(ctx, photoID, tagID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// RemoveTagFromPhoto unassigns tagID from photoID.
func (s *Service) RemoveTagFromPhoto(ctx context.Context, photoID, tagID uint64) error {
	removed, err := s.uow.Photos.RemoveTag(ctx, photoID, tagID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !removed {
		return svcErr.NotFound("tag is not assigned to this photo")
	}
	return nil
}

// PhotoApprovalStats counts approved and pending photos per user.
func (s *Service) PhotoApprovalStats(ctx context.Context) ([]repository.ApprovalStats, error) {
	stats, err := s.uow.Users.PhotoApprovalStats(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return stats, nil
}

// UsersWithoutMainPhoto lists usernames that have no main photo.
func (s *Service) UsersWithoutMainPhoto(ctx context.Context) ([]string, error) {
	names, err := s.uow.Users.UsernamesWithoutMainPhoto(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return names, nil
}

// parseRoles splits a comma separated list into canonical role names.
func parseRoles(raw string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, ok := knownRoles[strings.ToLower(part)]
		if !ok {
			return nil, svcErr.InvalidArgument("unknown role " + part)
		}
		if !seen[role] {
			seen[role] = true
			out = append(out, role)
		}
	}
	if len(out) == 0 {
		return nil, svcErr.InvalidArgument("you must select at least one role")
	}
	return out, nil
}

// difference returns the elements of a missing from b.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	var out []string
	for _, v := range a {
		if !in[v] {
			out = append(out, v)
		}
	}
	return out
}

func notFoundOr(err error, msg string) error {
	if svcErr.KindOf(err) == svcErr.KindNotFound {
		return svcErr.NotFound(msg)
	}
	return svcErr.Map(err)
}
