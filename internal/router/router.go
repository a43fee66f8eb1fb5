package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/auditrail/backend/api/handler"
)

type Handlers struct {
	User     *apiHandler.UserHandler
	Activity *apiHandler.ActivityHandler
	Replay   *apiHandler.ReplayHandler
	Auth     *apiHandler.AuthHandler
	Health   *apiHandler.HealthHandler
}

// New assembles the route table. adminMiddleware guards the replay endpoint;
// pass nil to leave it open (development setups without an admin key).
func New(handlers Handlers, adminMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	if adminMiddleware == nil {
		adminMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r := router.New()

	r.GET("/health", handlers.Health.Check)

	if handlers.Auth != nil {
		r.POST("/api/v1/auth/token", handlers.Auth.IssueToken)
	}

	r.GET("/api/v1/users", handlers.User.List)
	r.POST("/api/v1/users", handlers.User.Create)
	r.GET("/api/v1/users/{id}", handlers.User.Get)
	r.PATCH("/api/v1/users/{id}", handlers.User.Update)
	r.DELETE("/api/v1/users/{id}", handlers.User.Delete)

	r.GET("/api/v1/logs", handlers.Activity.List)
	r.GET("/api/v1/logs/user/{user_id}", handlers.Activity.ListByUser)
	r.POST("/api/v1/logs/replay", adminMiddleware(handlers.Replay.Replay))

	return r
}
