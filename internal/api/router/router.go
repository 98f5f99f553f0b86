package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-compressor/internal/api/handlers/compress"
)

func Setup(h *compress.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/health", func(c *ginext.Context) {
		c.String(http.StatusOK, http.StatusText(http.StatusOK))
	})

	api := r.Group("/api")

	api.POST("/compress", h.Compress)        // compress and return inline
	api.POST("/compress/async", h.Submit)    // store and enqueue
	api.GET("/compress/:id", h.GetResult)    // fetch async result
	api.GET("/compress/:id/meta", h.GetMeta) // task status

	return r
}
