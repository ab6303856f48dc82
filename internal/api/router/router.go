package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/video-overlay/internal/api/handlers/job"
	"github.com/aliskhannn/video-overlay/internal/middleware"
)

func Setup(h *job.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	// One endpoint, three operations: GET dispatches on ?action=
	// (presign/status), POST submits a job. Every method is routed to
	// the handler so unsupported ones get a JSON 405 instead of gin's
	// bare 404.
	api.Any("/process", h.Process)

	return r
}
