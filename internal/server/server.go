package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/team-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"go.uber.org/fx"
)

// NewEcho builds the HTTP API. Everything under /api/v1 requires a bearer
// token.
func NewEcho(conf *config.Config, handler Controller, live *LiveHandler) *echo.Echo {
	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog)

	logConfig := pkgmdw.LogRequestConfig{
		Logger: httpLog,
		Skip: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORS(conf.Server.CORSPattern))
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(middleware.BodyLimit("256K"))

	if conf.Server.EnablePprof {
		pkgmdw.PprofWrap(e)
	}

	e.GET("/health", handler.Health)

	api := e.Group("/api/v1", pkgmdw.JWTAuth(conf.Auth))
	w := pkgmdw.WrapHandler

	api.GET("/me", w(handler.Me))
	api.PUT("/me", w(handler.UpdateMe))
	api.GET("/users/:id", w(handler.GetUser))
	api.GET("/directory", w(handler.Directory))

	api.GET("/channels", w(handler.ListChannels))
	api.POST("/channels", w(handler.CreateChannel))
	api.POST("/dms", w(handler.OpenDM))
	api.POST("/channels/:id/join", w(handler.JoinChannel))
	api.POST("/channels/:id/leave", w(handler.LeaveChannel))
	api.GET("/channels/:id/members", w(handler.ListMembers))
	api.GET("/channels/:id/bulletins", w(handler.ListBulletins))
	api.POST("/channels/:id/bulletins", w(handler.CreateBulletin))
	api.GET("/channels/:id/messages", w(handler.LatestMessages))
	api.GET("/channels/:id/messages/older", w(handler.OlderMessages))
	api.POST("/channels/:id/messages", w(handler.SendMessage))
	api.GET("/channels/:id/live", live.Serve)

	api.GET("/messages/:id/context", w(handler.MessageContext))
	api.GET("/messages/:id/before", w(handler.MessagesBefore))
	api.GET("/messages/:id/after", w(handler.MessagesAfter))
	api.PATCH("/messages/:id", w(handler.EditMessage))
	api.DELETE("/messages/:id", w(handler.DeleteMessage))
	api.GET("/messages/:id/reactions", w(handler.Reactions))
	api.POST("/messages/:id/reactions", w(handler.AddReaction))
	api.DELETE("/messages/:id/reactions/:emoji", w(handler.RemoveReaction))
	api.POST("/messages/:id/read", w(handler.MarkRead))

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
