package handlers

import (
	"io"
	"mime"
	"net/http"
	"organizer/ingest"
	"organizer/models"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"
)

const fetchCacheTime = 3600

// PhotoInfo is a photo without its payloads
type PhotoInfo struct {
	models.Photo
	Name       string `json:"name"`
	HasPreview bool   `json:"has_preview"`
}

func toPhotoInfo(p *models.Photo) PhotoInfo {
	return PhotoInfo{Photo: *p, Name: p.Name(), HasPreview: p.HasPreview()}
}

func toPhotoInfos(photos []models.Photo) []PhotoInfo {
	result := make([]PhotoInfo, 0, len(photos))
	for i := range photos {
		result = append(result, toPhotoInfo(&photos[i]))
	}
	return result
}

type PhotoListRequest struct {
	Sort          string  `form:"sort"`
	Dir           string  `form:"dir"`
	FolderID      *uint64 `form:"folder_id"`
	Uncategorized uint    `form:"uncategorized"`
}

type PhotoIDRequest struct {
	ID uint64 `form:"id" binding:"required"`
}

type PhotoFetchRequest struct {
	ID       uint64 `form:"id" binding:"required"`
	Thumb    uint   `form:"thumb"`
	Download uint   `form:"download"`
	Size     uint   `form:"size"`
}

type PhotoRenameRequest struct {
	ID   uint64 `json:"id" binding:"required"`
	Name string `json:"name"`
}

type PhotoFavouriteRequest struct {
	ID        uint64 `json:"id" binding:"required"`
	Favourite bool   `json:"favourite"`
}

type PhotoMoveRequest struct {
	IDs      []uint64 `json:"ids" binding:"required"`
	FolderID *uint64  `json:"folder_id"`
}

type PhotoDeleteRequest struct {
	IDs []uint64 `json:"ids" binding:"required"`
}

type PhotoSearchRequest struct {
	Query string `form:"q"`
	Mode  string `form:"mode"`
	From  *int64 `form:"from"`
	To    *int64 `form:"to"`
	TagID uint64 `form:"tag_id"`
}

func (h *Handlers) PhotoList(c *gin.Context) {
	r := PhotoListRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	key, dir := models.ParseSort(r.Sort, r.Dir)
	var photos []models.Photo
	var err error
	if r.FolderID != nil || r.Uncategorized == 1 {
		photos, err = h.repos.Photos.GetByFolder(c, r.FolderID, key, dir)
	} else {
		photos, err = h.repos.Photos.GetAll(c, key, dir)
	}
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, toPhotoInfos(photos))
}

func (h *Handlers) PhotoGet(c *gin.Context) {
	r := PhotoIDRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	photo, err := h.repos.Photos.GetByID(c, r.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, NopeResponse)
		return
	}
	c.JSON(http.StatusOK, toPhotoInfo(photo))
}

// PhotoFetch serves the original, the stored preview (thumb=1) or a preview
// of a custom size (thumb=1&size=N)
func (h *Handlers) PhotoFetch(c *gin.Context) {
	r := PhotoFetchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	photo, err := h.repos.Photos.GetByID(c, r.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, NopeResponse)
		return
	}
	if r.Thumb != 1 {
		// Original
		if r.Download == 1 {
			c.Header("content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": photo.Name()}))
		}
		c.Data(http.StatusOK, photo.MimeType, photo.Data)
		return
	}
	if r.Size == 0 {
		if !photo.HasPreview() {
			c.JSON(http.StatusNotFound, NopeResponse)
			return
		}
		c.Data(http.StatusOK, "image/jpeg", photo.Preview)
		return
	}
	// Custom size
	key := strconv.FormatUint(photo.ID, 10) + ":" + strconv.FormatUint(uint64(r.Size), 10)
	if cached, found := h.previews.Get(key); found {
		c.Data(http.StatusOK, "image/jpeg", cached.([]byte))
		return
	}
	preview, err := ingest.Resize(photo.Data, r.Size)
	if err != nil {
		klog.V(1).Infof("Cannot resize photo %d to %d: %v", photo.ID, r.Size, err)
		c.JSON(http.StatusUnprocessableEntity, Response{err.Error()})
		return
	}
	h.previews.Set(key, preview, cache.DefaultExpiration)
	c.Data(http.StatusOK, "image/jpeg", preview)
}

// PhotoImport takes multipart "files" (with optional "last_modified" values
// in the same order) and an optional "folder_id". Without a folder the files
// go to the active session, if any.
func (h *Handlers) PhotoImport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	var folderID *uint64
	if v := c.PostForm("folder_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{"invalid folder_id"})
			return
		}
		folderID = &id
	}
	lastModified := form.Value["last_modified"]
	files := []models.ImportFile{}
	for i, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{err.Error()})
			return
		}
		file := models.ImportFile{
			Data:     data,
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		}
		if file.MimeType == "application/octet-stream" {
			file.MimeType = ""
		}
		if i < len(lastModified) {
			file.LastModified, _ = strconv.ParseInt(lastModified[i], 10, 64)
		}
		files = append(files, file)
	}
	ids, err := h.session.Import(c, files, folderID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, IDsResponse{IDs: ids})
}

func (h *Handlers) PhotoRename(c *gin.Context) {
	r := PhotoRenameRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Photos.Rename(c, r.ID, r.Name); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) PhotoFavourite(c *gin.Context) {
	r := PhotoFavouriteRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Photos.SetFavorite(c, r.ID, r.Favourite); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) PhotoMove(c *gin.Context) {
	r := PhotoMoveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Photos.MoveToFolder(c, r.IDs, r.FolderID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) PhotoDelete(c *gin.Context) {
	r := PhotoDeleteRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err := h.repos.Photos.DeletePhotos(c, r.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, MultiResponse{err.Error(), r.IDs})
		return
	}
	c.JSON(http.StatusOK, OKMultiResponse)
}

// PhotoSearch runs a search; BY_TAG with a tag_id keeps only the photos
// carrying that tag
func (h *Handlers) PhotoSearch(c *gin.Context) {
	r := PhotoSearchRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	mode := models.SearchMode(r.Mode)
	if mode == "" {
		mode = models.SearchAll
	}
	photos, err := h.repos.Photos.Search(c, r.Query, mode, models.SearchOptions{DateFrom: r.From, DateTo: r.To})
	if err != nil {
		abortWith(c, err)
		return
	}
	if mode == models.SearchByTag && r.TagID > 0 {
		ids, err := h.repos.PhotoTags.GetPhotosForTag(c, r.TagID)
		if err != nil {
			abortWith(c, err)
			return
		}
		tagged := make(map[uint64]bool, len(ids))
		for _, id := range ids {
			tagged[id] = true
		}
		result := []models.Photo{}
		for _, p := range photos {
			if tagged[p.ID] {
				result = append(result, p)
			}
		}
		photos = result
	}
	c.JSON(http.StatusOK, toPhotoInfos(photos))
}

func (h *Handlers) PhotoTags(c *gin.Context) {
	r := PhotoIDRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	tags, err := h.repos.PhotoTags.GetTagsForPhoto(c, r.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handlers) PhotoUncategorized(c *gin.Context) {
	count, err := h.repos.Photos.CountByFolder(c, nil)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}
