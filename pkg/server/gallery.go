package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/datastore"
	"github.com/gin-gonic/gin"
)

// GalleryServer serves the output directory and the run ledger for local review
type GalleryServer struct {
	srv      *http.Server
	runStore *datastore.RunStore
}

func NewGalleryServer(port, outputDir string, runStore *datastore.RunStore) *GalleryServer {
	// init router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	gallery := &GalleryServer{
		srv: &http.Server{
			Addr:    net.JoinHostPort("127.0.0.1", port),
			Handler: router,
		},
		runStore: runStore,
	}

	router.GET("/healthz", gallery.healthz)
	router.GET("/runs", gallery.listRuns)
	router.StaticFS("/outputs", http.Dir(outputDir))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/outputs")
	})
	return gallery
}

func (g *GalleryServer) healthz(c *gin.Context) {
	c.String(http.StatusOK, "success")
}

// listRuns run ledger as json
func (g *GalleryServer) listRuns(c *gin.Context) {
	if g.runStore == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	runs, err := g.runStore.ListRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// Start gallery server
func (g *GalleryServer) Start() error {
	if err := g.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shutdown gallery server, timeout=shutdownTimeout
func (g *GalleryServer) Close(shutdownTimeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return g.srv.Shutdown(ctx)
}
