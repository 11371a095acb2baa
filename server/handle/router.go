package handle

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/inscription-c/insc-testbed/internal/metrics"
)

func (h *Handler) InitRouter() {
	if h.options.enablePProf {
		pprof.Register(h.Engine())
	}
	if h.options.prometheus {
		h.Engine().Use(metrics.HTTP)
		h.Engine().GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	h.Engine().GET("/state", h.State)
	h.Engine().GET("/transactions", h.Transactions)
	h.Engine().GET("/content-types", h.ContentTypes)
	h.Engine().POST("/init", h.Init)
	h.Engine().POST("/balance", h.Balance)
	h.Engine().POST("/fund", h.Fund)
	h.Engine().POST("/mine", h.Mine)
	h.Engine().POST("/inscribe", h.Inscribe)
}
