package app

import (
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/team-chat/internal/server"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// Invoke builds the server application and runs funcs against it.
func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	if err := logger.SetLevel(conf.Log.Level); err != nil {
		log.Warnw("keeping default log level", "error", err)
	}
	log.Debugw("config loaded", logger.Reflect("config", conf))

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newRedisClient,
			newReadMarks,
			newLiveHub,
			newEventPublisher,

			mongodb.NewBulletinRepository,
			mongodb.NewChannelRepository,
			mongodb.NewMemberRepository,
			mongodb.NewMessageRepository,
			mongodb.NewReactionRepository,
			mongodb.NewReceiptRepository,
			mongodb.NewUserRepository,

			usecase.NewChatUsecase,
			usecase.NewMessageUsecase,
			usecase.NewUserUsecase,

			server.NewController,
			server.NewLiveHandler,
			server.NewEcho,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}
