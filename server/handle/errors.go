package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/server/handle/api"
	"github.com/inscription-c/insc-testbed/testbed"
)

// errStatus maps a workflow error to its HTTP status and api code.
func errStatus(err error) (int, api.Code) {
	switch {
	case errors.Is(err, testbed.ErrInFlight):
		return http.StatusConflict, api.CodeInFlight
	case errors.Is(err, inscription.ErrUnknownContentType):
		return http.StatusBadRequest, api.CodeParamsInvalid
	case errors.Is(err, testbed.ErrNoAddress), errors.Is(err, testbed.ErrNoMiningAddress):
		return http.StatusPreconditionFailed, api.CodeNotReady
	}
	return http.StatusBadGateway, api.CodeUpstreamError
}

// fail writes err with the failed step and the current state. Extra data
// entries are merged in.
func (h *Handler) fail(ctx *gin.Context, err error, data gin.H) {
	status, code := errStatus(err)
	if data == nil {
		data = gin.H{}
	}
	data["step"] = testbed.FailedStep(err)
	data["state"] = h.Workflow().Snapshot().View()
	_ = ctx.Error(err)
	ctx.JSON(status, api.RespErrData(code, err.Error(), data))
}

func (h *Handler) badRequest(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
}
