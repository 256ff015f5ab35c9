package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/propside/media-service/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/media", r.handlers.Media.Upload)
	group.POST("/media/batch", r.handlers.Media.UploadBatch)
	group.POST("/media/embed", r.handlers.Media.Embed)
	group.POST("/media/approve", r.handlers.Media.ApproveBatch)
	group.POST("/media/scrape", r.handlers.Scrape.Scrape)
	group.GET("/media/:id", r.handlers.Media.Get)
	group.DELETE("/media/:id", r.handlers.Media.Delete)
	group.POST("/media/:id/approve", r.handlers.Media.Approve)
	group.POST("/media/:id/reject", r.handlers.Media.Reject)
	group.GET("/media/:id/duplicate/:other", r.handlers.Media.Duplicate)
}
