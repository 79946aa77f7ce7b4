package server

import (
	"net/http"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	pkgmdw "github.com/nguyentranbao-ct/team-chat/internal/server/middleware"
)

// Controller holds the JSON handlers. Each handler is mounted through
// pkgmdw.WrapHandler, which binds and validates its request struct.
type Controller interface {
	Health(c echo.Context) error

	ListChannels(c echo.Context, req userRequest) ([]models.Channel, error)
	CreateChannel(c echo.Context, req createChannelRequest) (*pkgmdw.Response, error)
	OpenDM(c echo.Context, req openDMRequest) (*models.Channel, error)
	JoinChannel(c echo.Context, req channelRequest) error
	LeaveChannel(c echo.Context, req channelRequest) error
	ListMembers(c echo.Context, req channelRequest) ([]models.ChannelMember, error)
	ListBulletins(c echo.Context, req channelLimitRequest) ([]models.Bulletin, error)
	CreateBulletin(c echo.Context, req createBulletinRequest) (*pkgmdw.Response, error)

	LatestMessages(c echo.Context, req channelLimitRequest) (models.LiveBatch, error)
	OlderMessages(c echo.Context, req olderMessagesRequest) ([]models.Message, error)
	SendMessage(c echo.Context, req sendMessageRequest) (*pkgmdw.Response, error)
	MessageContext(c echo.Context, req messageContextRequest) (models.MessageContext, error)
	MessagesBefore(c echo.Context, req messageLimitRequest) ([]models.Message, error)
	MessagesAfter(c echo.Context, req messageLimitRequest) ([]models.Message, error)
	EditMessage(c echo.Context, req editMessageRequest) (*models.Message, error)
	DeleteMessage(c echo.Context, req messageRequest) error
	Reactions(c echo.Context, req messageRequest) ([]models.ReactionCount, error)
	AddReaction(c echo.Context, req reactionRequest) ([]models.ReactionCount, error)
	RemoveReaction(c echo.Context, req removeReactionRequest) ([]models.ReactionCount, error)
	MarkRead(c echo.Context, req messageRequest) error

	Me(c echo.Context, req userRequest) (*models.User, error)
	UpdateMe(c echo.Context, req updateMeRequest) (*models.User, error)
	GetUser(c echo.Context, req getUserRequest) (*models.User, error)
	Directory(c echo.Context, req directoryRequest) (*usecase.DirectoryPage, error)
}

type controller struct {
	chat          usecase.ChatUsecase
	messages      usecase.MessageUsecase
	users         usecase.UserUsecase
	maxBodyLength int
}

func NewController(
	conf *config.Config,
	chat usecase.ChatUsecase,
	messages usecase.MessageUsecase,
	users usecase.UserUsecase,
) Controller {
	return &controller{
		chat:          chat,
		messages:      messages,
		users:         users,
		maxBodyLength: conf.Server.MaxBodyLength,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "team-chat",
	})
}

func (h *controller) checkBody(body string) error {
	if h.maxBodyLength > 0 && utf8.RuneCountInString(body) > h.maxBodyLength {
		return echo.NewHTTPError(http.StatusBadRequest, "message body is too long")
	}
	return nil
}
