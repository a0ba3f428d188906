package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TagCreateRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type TagIDRequest struct {
	ID uint64 `json:"id" form:"id" binding:"required"`
}

type TagAddRequest struct {
	TagID    uint64   `json:"tag_id" binding:"required"`
	PhotoIDs []uint64 `json:"photo_ids" binding:"required"`
}

type TagRemoveRequest struct {
	TagID   uint64 `json:"tag_id" binding:"required"`
	PhotoID uint64 `json:"photo_id" binding:"required"`
}

func (h *Handlers) TagList(c *gin.Context) {
	tags, err := h.repos.Tags.GetAll(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handlers) TagCreate(c *gin.Context) {
	r := TagCreateRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	id, err := h.repos.Tags.Create(c, r.Name, r.Color)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, IDResponse{ID: id})
}

func (h *Handlers) TagDelete(c *gin.Context) {
	r := TagIDRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Tags.Delete(c, r.ID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// TagAdd tags every photo in the request; the ones that could not be tagged
// come back in "failed"
func (h *Handlers) TagAdd(c *gin.Context) {
	r := TagAddRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	failed := h.repos.PhotoTags.AddToMultiple(c, r.PhotoIDs, r.TagID)
	if len(failed) > 0 {
		c.JSON(http.StatusInternalServerError, MultiResponse{"Some photos cannot be tagged", failed})
		return
	}
	c.JSON(http.StatusOK, OKMultiResponse)
}

func (h *Handlers) TagRemove(c *gin.Context) {
	r := TagRemoveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.PhotoTags.Remove(c, r.PhotoID, r.TagID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) TagPhotos(c *gin.Context) {
	r := TagIDRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	ids, err := h.repos.PhotoTags.GetPhotosForTag(c, r.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, IDsResponse{IDs: ids})
}

func (h *Handlers) TagExists(c *gin.Context) {
	r := NameExistsRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	exists, err := h.repos.Tags.NameExists(c, r.Name)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}
