package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
)

func (h *controller) Me(c echo.Context, req userRequest) (*models.User, error) {
	return h.users.GetUser(c.Request().Context(), req.UserID)
}

// UpdateMe mirrors the caller's identity provider profile.
func (h *controller) UpdateMe(c echo.Context, req updateMeRequest) (*models.User, error) {
	return h.users.SyncProfile(c.Request().Context(), models.User{
		ID:    req.UserID,
		Name:  req.Name,
		Email: req.Email,
		Title: req.Title,
	})
}

func (h *controller) GetUser(c echo.Context, req getUserRequest) (*models.User, error) {
	return h.users.GetUser(c.Request().Context(), req.ID)
}

func (h *controller) Directory(c echo.Context, req directoryRequest) (*usecase.DirectoryPage, error) {
	return h.users.Directory(c.Request().Context(), req.Query, req.Limit, req.Offset)
}
