package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/auditrail/backend/api/transport"
	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/pkg/httpcontext"
	replayUC "github.com/auditrail/backend/usecase/replay"
)

type ReplayHandler struct {
	baseHandler
	uc *replayUC.UseCase
}

func NewReplayHandler(uc *replayUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReplayHandler {
	return &ReplayHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Replay a captured log sequence, or wipe when the sequence is empty
// @Tags logs
// @Accept json
// @Router /api/v1/logs/replay [post]
func (h *ReplayHandler) Replay(ctx *fasthttp.RequestCtx) {
	var req transport.ReplayRequest
	if err := decodeBody(ctx.PostBody(), &req); err != nil {
		h.badPayload(ctx, err)
		return
	}
	if req.Logs == nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "logs key not present"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Replay(stdCtx, *req.Logs); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
