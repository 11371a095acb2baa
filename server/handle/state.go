package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/server/handle/api"
)

// State returns the current session state.
func (h *Handler) State(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, api.RespOK(h.Workflow().Snapshot().View()))
}

// Transactions returns the session's transaction log, oldest first.
func (h *Handler) Transactions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, api.RespOK(h.Workflow().Transactions()))
}

// ContentTypes returns the content type table. An entry's position is the
// index accepted by /inscribe.
func (h *Handler) ContentTypes(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, api.RespOK(inscription.Types))
}

// Init re-runs session initialization. A known deposit address is kept.
func (h *Handler) Init(ctx *gin.Context) {
	if err := h.Workflow().Initialize(ctx.Request.Context()); err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(h.Workflow().Snapshot().View()))
}
