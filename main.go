package main

import (
	"context"
	"flag"
	"organizer/config"
	"organizer/db"
	"organizer/handlers"
	"organizer/inbox"
	"organizer/models"
	"organizer/processing"
	"organizer/session"
	"organizer/utils"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db.Init()
	models.Init()
	processing.Init()
	go processing.StartProcessing(ctx)

	repos := models.NewRepositories(db.Instance, nil)
	settings := models.NewSettingStore(db.Instance)
	controller := session.NewController(repos, settings, nil)
	consolidator := session.NewConsolidator(repos, settings, nil)
	go consolidator.StartConsolidation(ctx, time.Duration(config.CONSOLIDATE_INTERVAL)*time.Second)

	if config.IMPORT_DIR != "" {
		go func() {
			if err := inbox.New(config.IMPORT_DIR, controller).Watch(ctx); err != nil {
				klog.Errorf("Inbox stopped: %v", err)
			}
		}()
	}

	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        30 * 24 * time.Hour,
	}))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/photo/fetch"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that
	handlers.New(repos, controller, consolidator).Register(router)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		err = router.Run(config.BIND_ADDRESS)
	}
	klog.Fatalf("Server stopped: %v", err)
}
