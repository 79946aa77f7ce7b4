package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/team-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
)

func (h *controller) ListChannels(c echo.Context, req userRequest) ([]models.Channel, error) {
	return h.chat.ListChannels(c.Request().Context(), req.UserID)
}

func (h *controller) CreateChannel(c echo.Context, req createChannelRequest) (*pkgmdw.Response, error) {
	typ := req.Type
	if typ == "" {
		typ = models.ChannelTypePublic
	}
	channel, err := h.chat.CreateChannel(c.Request().Context(), req.UserID, usecase.CreateChannelParams{
		Name:  req.Name,
		Topic: req.Topic,
		Type:  typ,
	})
	if err != nil {
		return nil, err
	}
	return pkgmdw.Created(channel), nil
}

func (h *controller) OpenDM(c echo.Context, req openDMRequest) (*models.Channel, error) {
	return h.chat.OpenDM(c.Request().Context(), req.UserID, req.OtherID)
}

func (h *controller) JoinChannel(c echo.Context, req channelRequest) error {
	return h.chat.JoinChannel(c.Request().Context(), req.UserID, req.ChannelID)
}

func (h *controller) LeaveChannel(c echo.Context, req channelRequest) error {
	return h.chat.LeaveChannel(c.Request().Context(), req.UserID, req.ChannelID)
}

func (h *controller) ListMembers(c echo.Context, req channelRequest) ([]models.ChannelMember, error) {
	return h.chat.ListMembers(c.Request().Context(), req.UserID, req.ChannelID)
}

func (h *controller) ListBulletins(c echo.Context, req channelLimitRequest) ([]models.Bulletin, error) {
	return h.messages.ListBulletins(c.Request().Context(), req.UserID, req.ChannelID, req.Limit)
}

func (h *controller) CreateBulletin(c echo.Context, req createBulletinRequest) (*pkgmdw.Response, error) {
	if err := h.checkBody(req.Body); err != nil {
		return nil, err
	}
	bulletin, err := h.messages.CreateBulletin(c.Request().Context(), req.UserID, req.ChannelID, req.Title, req.Body)
	if err != nil {
		return nil, err
	}
	return pkgmdw.Created(bulletin), nil
}
