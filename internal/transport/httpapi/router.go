// Package httpapi exposes the services as a JSON API over Gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/auth"
	svcErr "github.com/oggyb/dating-app/internal/errors"
	"github.com/oggyb/dating-app/internal/metrics"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/admin"
	"github.com/oggyb/dating-app/internal/service/likes"
	"github.com/oggyb/dating-app/internal/service/matches"
	"github.com/oggyb/dating-app/internal/service/members"
	"github.com/oggyb/dating-app/internal/service/messages"
	"github.com/oggyb/dating-app/internal/transport/response"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

// Handler binds HTTP routes to the services.
type Handler struct {
	appCtx   *app.AppContext
	members  *members.Service
	likes    *likes.Service
	matches  *matches.Service
	messages *messages.Service
	admin    *admin.Service
}

func NewHandler(appCtx *app.AppContext) *Handler {
	return &Handler{
		appCtx:   appCtx,
		members:  members.NewMembersService(appCtx),
		likes:    likes.NewLikesService(appCtx),
		matches:  matches.NewMatchesService(appCtx),
		messages: messages.NewMessagesService(appCtx),
		admin:    admin.NewAdminService(appCtx),
	}
}

// NewRouter builds the Gin engine with every route registered.
func NewRouter(appCtx *app.AppContext, tokens *auth.TokenService) *gin.Engine {
	h := NewHandler(appCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(appCtx.Logger))
	r.Use(metrics.GinMiddleware())

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", exposePagination())

	authed := api.Group("",
		auth.RequireAuth(tokens),
		TouchLastActive(repository.NewUserRepository(appCtx.DB)),
	)

	users := authed.Group("/users")
	users.GET("", h.getMembers)
	users.PUT("", h.updateProfile)
	users.GET("/matches", h.getMatches)
	users.GET("/photo-tags", h.memberTags)
	users.GET("/photos", h.approvedPhotos)
	users.GET("/photos/by-tag/:tagId", h.photosByTag)
	users.POST("/photos/:photoId/tags", h.setPhotoTags)
	users.POST("/add-photo", h.addPhoto)
	users.PUT("/set-main-photo/:photoId", h.setMainPhoto)
	users.DELETE("/delete-photo/:photoId", h.deletePhoto)
	users.GET("/:username", h.getMember)

	lk := authed.Group("/likes")
	lk.POST("/:targetUserId", h.toggleLike)
	lk.GET("/list", h.likedIDs)
	lk.GET("", h.getLikes)
	lk.GET("/count", h.countLikedBy)

	msg := authed.Group("/messages")
	msg.POST("", h.createMessage)
	msg.GET("", h.messagesForUser)
	msg.GET("/thread/:username", h.thread)
	msg.DELETE("/:id", h.deleteMessage)

	mod := authed.Group("/admin", auth.RequireModerator())
	mod.GET("/photos-to-moderate", h.photosToModerate)
	mod.POST("/approve-photo/:photoId", h.approvePhoto)
	mod.POST("/reject-photo/:photoId", h.rejectPhoto)

	adm := authed.Group("/admin", auth.RequireAdmin())
	adm.GET("/users-with-roles", h.usersWithRoles)
	adm.POST("/edit-roles/:username", h.editRoles)
	adm.GET("/photo-tags", h.adminTags)
	adm.POST("/photo-tags", h.createTag)
	adm.DELETE("/photo-tags/:tagId", h.deleteTag)
	adm.POST("/photos/:photoId/tags/:tagId", h.addTagToPhoto)
	adm.DELETE("/photos/:photoId/tags/:tagId", h.removeTagFromPhoto)
	adm.GET("/photo-approval-stats", h.photoApprovalStats)
	adm.GET("/users-without-main-photo", h.usersWithoutMainPhoto)

	return r
}

// health reports whether the DB and Redis answer.
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"db": "ok", "redis": "disabled"}
	healthy := true

	if sqlDB, err := h.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["db"] = "down"
		healthy = false
	}
	if h.appCtx.RedisCache != nil {
		checks["redis"] = "ok"
		if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"] = "down"
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{Success: false, Data: checks})
		return
	}
	response.Success(c, checks)
}

// writePage sends a paged list with its Pagination header.
func writePage[T any](c *gin.Context, list pagination.PagedList[T]) {
	header, err := list.Header().Encode()
	if err != nil {
		response.FromError(c, svcErr.Internal("pagination header", err))
		return
	}
	c.Header(pagination.HeaderName, header)
	response.Success(c, list.Items)
}

// pageParams reads pageNumber and pageSize from the query string.
func pageParams(c *gin.Context) (pagination.Params, bool) {
	p, err := pagination.ParseParams(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return pagination.Params{}, false
	}
	return p, true
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}
