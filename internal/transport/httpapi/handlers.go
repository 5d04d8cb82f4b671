package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/dating-app/internal/auth"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/service/members"
	"github.com/oggyb/dating-app/internal/service/messages"
	"github.com/oggyb/dating-app/internal/transport/response"
)

const maxUploadBytes = 10 << 20

// --- users ---

func (h *Handler) getMembers(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	minAge, ok := intQuery(c, "minAge")
	if !ok {
		return
	}
	maxAge, ok := intQuery(c, "maxAge")
	if !ok {
		return
	}

	list, err := h.members.GetMembers(c.Request.Context(), auth.GetUsername(c), members.MemberParams{
		Params:  page,
		Gender:  c.Query("gender"),
		MinAge:  minAge,
		MaxAge:  maxAge,
		OrderBy: c.Query("orderBy"),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, list)
}

func (h *Handler) getMember(c *gin.Context) {
	m, err := h.members.GetMember(c.Request.Context(), c.Param("username"), auth.GetUsername(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, m)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var upd members.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.members.UpdateProfile(c.Request.Context(), auth.GetUsername(c), upd); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) addPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	photo, err := h.members.AddPhoto(c.Request.Context(), auth.GetUsername(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, photo)
}

func (h *Handler) setMainPhoto(c *gin.Context) {
	id, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	if err := h.members.SetMainPhoto(c.Request.Context(), auth.GetUsername(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) deletePhoto(c *gin.Context) {
	id, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	if err := h.members.DeletePhoto(c.Request.Context(), auth.GetUsername(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func (h *Handler) memberTags(c *gin.Context) {
	tags, err := h.members.Tags(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tags)
}

func (h *Handler) approvedPhotos(c *gin.Context) {
	photos, err := h.members.ApprovedPhotos(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photos)
}

func (h *Handler) photosByTag(c *gin.Context) {
	id, ok := idParam(c, "tagId")
	if !ok {
		return
	}
	photos, err := h.members.PhotosByTag(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photos)
}

func (h *Handler) setPhotoTags(c *gin.Context) {
	id, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	var body struct {
		TagIDs []uint64 `json:"tagIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	photo, err := h.members.SetPhotoTags(c.Request.Context(), auth.GetUsername(c), id, body.TagIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photo)
}

func (h *Handler) getMatches(c *gin.Context) {
	list, err := h.matches.GetMatches(c.Request.Context(), auth.GetUserID(c), c.Query("gender"), c.Query("city"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// --- likes ---

func (h *Handler) toggleLike(c *gin.Context) {
	target, ok := idParam(c, "targetUserId")
	if !ok {
		return
	}
	liked, err := h.likes.ToggleLike(c.Request.Context(), auth.GetUserID(c), target)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}

func (h *Handler) likedIDs(c *gin.Context) {
	ids, err := h.likes.LikedIDs(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, ids)
}

func (h *Handler) getLikes(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	list, err := h.likes.GetLikes(c.Request.Context(), auth.GetUserID(c), c.DefaultQuery("predicate", "liked"), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, list)
}

func (h *Handler) countLikedBy(c *gin.Context) {
	n, err := h.likes.CountLikedBy(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// --- messages ---

func (h *Handler) createMessage(c *gin.Context) {
	var req messages.CreateMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	msg, err := h.messages.Create(c.Request.Context(), auth.GetUsername(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handler) messagesForUser(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	list, err := h.messages.ForUser(c.Request.Context(), auth.GetUsername(c), c.Query("container"), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, list)
}

func (h *Handler) thread(c *gin.Context) {
	other := strings.ToLower(c.Param("username"))
	msgs, err := h.messages.Thread(c.Request.Context(), auth.GetUsername(c), other)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, msgs)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), auth.GetUsername(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// --- admin ---

func (h *Handler) usersWithRoles(c *gin.Context) {
	users, err := h.admin.UsersWithRoles(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, users)
}

func (h *Handler) editRoles(c *gin.Context) {
	roles, err := h.admin.EditRoles(c.Request.Context(), strings.ToLower(c.Param("username")), c.Query("roles"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	logger.Ctx(c.Request.Context(), h.appCtx.Logger).Info("roles edited",
		"by", auth.GetUsername(c), "target", c.Param("username"))
	response.Success(c, roles)
}

func (h *Handler) photosToModerate(c *gin.Context) {
	photos, err := h.admin.PhotosForModeration(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, photos)
}

func (h *Handler) approvePhoto(c *gin.Context) {
	id, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	if err := h.admin.ApprovePhoto(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) rejectPhoto(c *gin.Context) {
	id, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	if err := h.admin.RejectPhoto(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) adminTags(c *gin.Context) {
	tags, err := h.admin.Tags(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tags)
}

func (h *Handler) createTag(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	tag, err := h.admin.CreateTag(c.Request.Context(), body.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, tag)
}

func (h *Handler) deleteTag(c *gin.Context) {
	id, ok := idParam(c, "tagId")
	if !ok {
		return
	}
	if err := h.admin.DeleteTag(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) addTagToPhoto(c *gin.Context) {
	photoID, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	tagID, ok := idParam(c, "tagId")
	if !ok {
		return
	}
	if err := h.admin.AddTagToPhoto(c.Request.Context(), photoID, tagID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) removeTagFromPhoto(c *gin.Context) {
	photoID, ok := idParam(c, "photoId")
	if !ok {
		return
	}
	tagID, ok := idParam(c, "tagId")
	if !ok {
		return
	}
	if err := h.admin.RemoveTagFromPhoto(c.Request.Context(), photoID, tagID); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) photoApprovalStats(c *gin.Context) {
	stats, err := h.admin.PhotoApprovalStats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *Handler) usersWithoutMainPhoto(c *gin.Context) {
	names, err := h.admin.UsersWithoutMainPhoto(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, names)
}
