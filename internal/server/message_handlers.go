package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/team-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
)

func (h *controller) LatestMessages(c echo.Context, req channelLimitRequest) (models.LiveBatch, error) {
	return h.messages.Latest(c.Request().Context(), req.UserID, req.ChannelID, req.Limit)
}

func (h *controller) OlderMessages(c echo.Context, req olderMessagesRequest) ([]models.Message, error) {
	return h.messages.Older(c.Request().Context(), req.UserID, req.ChannelID, req.Before, req.Limit)
}

func (h *controller) SendMessage(c echo.Context, req sendMessageRequest) (*pkgmdw.Response, error) {
	if err := h.checkBody(req.Body); err != nil {
		return nil, err
	}
	format := req.Format
	if format == "" {
		format = models.FormatText
	}
	msg, err := h.messages.Send(c.Request().Context(), req.UserID, req.ChannelID, usecase.SendMessageParams{
		Body:      req.Body,
		Format:    format,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		return nil, err
	}
	return pkgmdw.Created(msg), nil
}

func (h *controller) MessageContext(c echo.Context, req messageContextRequest) (models.MessageContext, error) {
	return h.messages.Context(c.Request().Context(), req.UserID, req.MessageID, req.Size)
}

func (h *controller) MessagesBefore(c echo.Context, req messageLimitRequest) ([]models.Message, error) {
	return h.messages.Before(c.Request().Context(), req.UserID, req.MessageID, req.Limit)
}

func (h *controller) MessagesAfter(c echo.Context, req messageLimitRequest) ([]models.Message, error) {
	return h.messages.After(c.Request().Context(), req.UserID, req.MessageID, req.Limit)
}

func (h *controller) EditMessage(c echo.Context, req editMessageRequest) (*models.Message, error) {
	if err := h.checkBody(req.Body); err != nil {
		return nil, err
	}
	return h.messages.Edit(c.Request().Context(), req.UserID, req.MessageID, req.Body)
}

func (h *controller) DeleteMessage(c echo.Context, req messageRequest) error {
	return h.messages.Delete(c.Request().Context(), req.UserID, req.MessageID)
}

func (h *controller) Reactions(c echo.Context, req messageRequest) ([]models.ReactionCount, error) {
	return h.messages.Reactions(c.Request().Context(), req.UserID, req.MessageID)
}

func (h *controller) AddReaction(c echo.Context, req reactionRequest) ([]models.ReactionCount, error) {
	return h.messages.AddReaction(c.Request().Context(), req.UserID, req.MessageID, req.Emoji)
}

func (h *controller) RemoveReaction(c echo.Context, req removeReactionRequest) ([]models.ReactionCount, error) {
	return h.messages.RemoveReaction(c.Request().Context(), req.UserID, req.MessageID, req.Emoji)
}

func (h *controller) MarkRead(c echo.Context, req messageRequest) error {
	return h.messages.MarkRead(c.Request().Context(), req.UserID, req.MessageID)
}
