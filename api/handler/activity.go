package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/auditrail/backend/api/transport"
	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/pkg/httpcontext"
	activityUC "github.com/auditrail/backend/usecase/activity"
)

type ActivityHandler struct {
	baseHandler
	uc *activityUC.UseCase
}

func NewActivityHandler(uc *activityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List activity logs
// @Tags logs
// @Router /api/v1/logs [get]
func (h *ActivityHandler) List(ctx *fasthttp.RequestCtx) {
	h.list(ctx, "")
}

// @Summary List activity logs for one user
// @Tags logs
// @Router /api/v1/logs/user/{user_id} [get]
func (h *ActivityHandler) ListByUser(ctx *fasthttp.RequestCtx) {
	userID, _ := ctx.UserValue("user_id").(string)
	if userID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing user id"))
		return
	}
	h.list(ctx, userID)
}

func (h *ActivityHandler) list(ctx *fasthttp.RequestCtx, userID string) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	logs, err := h.uc.ListLogs(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewLogListPayload(logs))
}
