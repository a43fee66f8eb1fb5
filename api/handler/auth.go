package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/auditrail/backend/api/transport"
	"github.com/auditrail/backend/pkg/httpcontext"
	"github.com/auditrail/backend/pkg/timefmt"
	authUC "github.com/auditrail/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Exchange the admin key for a bearer token
// @Tags auth
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) IssueToken(ctx *fasthttp.RequestCtx) {
	var req transport.TokenRequest
	if err := decodeBody(ctx.PostBody(), &req); err != nil || req.AdminKey == "" {
		h.badPayload(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, session, err := h.uc.IssueToken(stdCtx, req.AdminKey)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.TokenPayload{
		Token:     token,
		ExpiresAt: timefmt.Format(session.ExpiresAt),
	})
}
