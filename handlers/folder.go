package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type FolderCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type FolderRenameRequest struct {
	ID   uint64 `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type FolderDeleteRequest struct {
	ID uint64 `json:"id" binding:"required"`
}

type FolderCoverRequest struct {
	ID      uint64  `json:"id" binding:"required"`
	PhotoID *uint64 `json:"photo_id"`
}

type NameExistsRequest struct {
	Name      string  `form:"name" binding:"required"`
	ExcludeID *uint64 `form:"exclude_id"`
}

func (h *Handlers) FolderList(c *gin.Context) {
	folders, err := h.repos.Folders.GetAll(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handlers) FolderCreate(c *gin.Context) {
	r := FolderCreateRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	id, err := h.repos.Folders.Create(c, r.Name, r.Description, r.Color)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, IDResponse{ID: id})
}

func (h *Handlers) FolderRename(c *gin.Context) {
	r := FolderRenameRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	exists, err := h.repos.Folders.NameExists(c, r.Name, &r.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, Response{"name: \"" + r.Name + "\" already exists"})
		return
	}
	if err = h.repos.Folders.Rename(c, r.ID, r.Name); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) FolderDelete(c *gin.Context) {
	r := FolderDeleteRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Folders.Delete(c, r.ID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) FolderCover(c *gin.Context) {
	r := FolderCoverRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Folders.SetCover(c, r.ID, r.PhotoID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) FolderExists(c *gin.Context) {
	r := NameExistsRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	exists, err := h.repos.Folders.NameExists(c, r.Name, r.ExcludeID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}
