package handlers

import (
	"errors"
	"net/http"
	"organizer/config"
	"organizer/db"
	"organizer/models"
	"organizer/session"
	"organizer/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"
)

type Response struct {
	Error string `json:"error"`
}

type MultiResponse struct {
	Error  string   `json:"error"`
	Failed []uint64 `json:"failed"`
}

type IDResponse struct {
	Error string `json:"error"`
	ID    uint64 `json:"id"`
}

type IDsResponse struct {
	Error string   `json:"error"`
	IDs   []uint64 `json:"ids"`
}

type ExistsResponse struct {
	Error  string `json:"error"`
	Exists bool   `json:"exists"`
}

type CountResponse struct {
	Error string `json:"error"`
	Count int64  `json:"count"`
}

var (
	// Predefined errors
	OKResponse       = Response{}
	NopeResponse     = Response{"nope"}
	DBError1Response = Response{"DB Error 1"}
	OKMultiResponse  = MultiResponse{"", []uint64{}}
)

// Handlers serves the organizer's HTTP API
type Handlers struct {
	repos        *models.Repositories
	session      *session.Controller
	consolidator *session.Consolidator
	// previews keeps the custom-size previews, keyed by "id:size"
	previews *cache.Cache
}

func New(repos *models.Repositories, controller *session.Controller, consolidator *session.Consolidator) *Handlers {
	ttl := time.Duration(config.PREVIEW_CACHE_MINUTES) * time.Minute
	return &Handlers{
		repos:        repos,
		session:      controller,
		consolidator: consolidator,
		previews:     cache.New(ttl, 2*ttl),
	}
}

// Register adds every route to router
func (h *Handlers) Register(router gin.IRouter) {
	// Photo handlers
	router.GET("/photo/list", h.PhotoList)
	router.GET("/photo/get", h.PhotoGet)
	router.GET("/photo/fetch", (&utils.CacheRouter{CacheTime: fetchCacheTime}).Handler(), h.PhotoFetch)
	router.POST("/photo/import", h.PhotoImport)
	router.POST("/photo/rename", h.PhotoRename)
	router.POST("/photo/favourite", h.PhotoFavourite)
	router.POST("/photo/move", h.PhotoMove)
	router.POST("/photo/delete", h.PhotoDelete)
	router.GET("/photo/search", h.PhotoSearch)
	router.GET("/photo/tags", h.PhotoTags)
	router.GET("/photo/uncategorized", h.PhotoUncategorized)
	// Folder handlers
	router.GET("/folder/list", h.FolderList)
	router.POST("/folder/create", h.FolderCreate)
	router.POST("/folder/rename", h.FolderRename)
	router.POST("/folder/delete", h.FolderDelete)
	router.POST("/folder/cover", h.FolderCover)
	router.GET("/folder/exists", h.FolderExists)
	// Tag handlers
	router.GET("/tag/list", h.TagList)
	router.POST("/tag/create", h.TagCreate)
	router.POST("/tag/delete", h.TagDelete)
	router.POST("/tag/add", h.TagAdd)
	router.POST("/tag/remove", h.TagRemove)
	router.GET("/tag/photos", h.TagPhotos)
	router.GET("/tag/exists", h.TagExists)
	// Session handlers
	router.GET("/session/status", h.SessionStatus)
	router.POST("/session/start", h.SessionStart)
	router.POST("/session/stop", h.SessionStop)
	router.POST("/session/consolidate", h.SessionConsolidate)
}

// abortWith writes the response for err: 400 for invalid input, 409 for a
// session conflict, 500 for everything else
func abortWith(c *gin.Context, err error) {
	switch {
	case models.IsValidationError(err):
		c.JSON(http.StatusBadRequest, Response{err.Error()})
	case errors.Is(err, session.ErrSessionActive):
		c.JSON(http.StatusConflict, Response{err.Error()})
	case errors.Is(err, db.ErrStoreUnavailable):
		klog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
	default:
		klog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, DBError1Response)
	}
}
