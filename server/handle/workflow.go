package handle

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/server/handle/api"
)

type ReqAddress struct {
	Address string `json:"address" binding:"omitempty,max=128"`
}

type ReqInscribe struct {
	// ContentType is a type table value ("text", "json") or its index.
	ContentType interface{} `json:"content_type"`
	Content     string      `json:"content"`
	Recipient   string      `json:"recipient" binding:"omitempty,max=128"`
}

// bindOptional binds a JSON body into obj. An empty body leaves obj as is.
func bindOptional(ctx *gin.Context, obj interface{}) error {
	if err := ctx.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func balanceString(b *uint256.Int) interface{} {
	if b == nil {
		return nil
	}
	return b.Dec()
}

// Balance refreshes the balance of the requested address, the deposit
// address by default.
func (h *Handler) Balance(ctx *gin.Context) {
	req := &ReqAddress{}
	if err := bindOptional(ctx, req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	address := req.Address
	if address == "" {
		address = h.Workflow().Address()
	}
	b, err := h.Workflow().FetchBalance(ctx.Request.Context(), address)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(gin.H{
		"balance": balanceString(b),
		"state":   h.Workflow().Snapshot().View(),
	}))
}

// Fund sends test coins to the requested address, the deposit address by
// default, mines a block and refreshes the balance.
func (h *Handler) Fund(ctx *gin.Context) {
	req := &ReqAddress{}
	if err := bindOptional(ctx, req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	address := req.Address
	if address == "" {
		address = h.Workflow().Address()
	}
	res, err := h.Workflow().RequestFunding(ctx.Request.Context(), address)
	if err != nil {
		h.fail(ctx, err, gin.H{"funding": res})
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(gin.H{
		"funding": res,
		"balance": balanceString(res.Balance),
		"state":   h.Workflow().Snapshot().View(),
	}))
}

// Mine mines one block to the node wallet.
func (h *Handler) Mine(ctx *gin.Context) {
	height, err := h.Workflow().MineBlock(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(gin.H{
		"block_height": height,
		"state":        h.Workflow().Snapshot().View(),
	}))
}

// Inscribe submits an inscription and mines a block to confirm it.
func (h *Handler) Inscribe(ctx *gin.Context) {
	req := &ReqInscribe{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		h.badRequest(ctx, err)
		return
	}
	kind, err := parseKind(req.ContentType)
	if err != nil {
		h.badRequest(ctx, err)
		return
	}
	tx, err := h.Workflow().SubmitInscription(ctx.Request.Context(), inscription.Request{
		ContentType: kind,
		Content:     req.Content,
		Recipient:   req.Recipient,
	})
	if err != nil {
		data := gin.H{}
		if tx != nil {
			data["transaction"] = tx
		}
		h.fail(ctx, err, data)
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(gin.H{
		"transaction": tx,
		"state":       h.Workflow().Snapshot().View(),
	}))
}

// parseKind accepts a table value, an index or a numeric string. A missing
// content type means text.
func parseKind(v interface{}) (inscription.Kind, error) {
	switch t := v.(type) {
	case nil:
		return inscription.KindText, nil
	case string:
		s := strings.TrimSpace(t)
		if s != "" && strings.Trim(s, "0123456789") == "" {
			return checkKind(inscription.Kind(gconv.Int(s)))
		}
		return inscription.ParseKind(s)
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: index %v", inscription.ErrUnknownContentType, t)
		}
	case bool, []interface{}, map[string]interface{}:
		return 0, inscription.ErrUnknownContentType
	}
	return checkKind(inscription.Kind(gconv.Int(v)))
}

func checkKind(k inscription.Kind) (inscription.Kind, error) {
	if _, err := k.ContentType(); err != nil {
		return 0, err
	}
	return k, nil
}
