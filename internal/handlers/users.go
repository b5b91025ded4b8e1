package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type updateUserRequest struct {
	FullName     string `json:"fullName"`
	Role         string `json:"role" validate:"omitempty,oneof=admin client"`
	EmployeeID   string `json:"employeeId"`
	HomeAddress  string `json:"homeAddress"`
	Contact      string `json:"contact"`
	Gender       string `json:"gender" validate:"omitempty,oneof=male female"`
	AssignedArea string `json:"assignedArea"`
	IsActive     *bool  `json:"isActive"`
}

func (s *Server) listUsers(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) getUser(c echo.Context) error {
	usr, err := s.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, usr)
}

func (s *Server) updateUser(c echo.Context) error {
	var req updateUserRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	usr, err := s.users.GetByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	// empty fields keep their current value
	if req.FullName != "" {
		usr.FullName = req.FullName
	}
	if req.Role != "" {
		usr.Role = req.Role
	}
	if req.EmployeeID != "" {
		usr.EmployeeID = req.EmployeeID
	}
	if req.HomeAddress != "" {
		usr.HomeAddress = req.HomeAddress
	}
	if req.Contact != "" {
		usr.Contact = req.Contact
	}
	if req.Gender != "" {
		usr.Gender = req.Gender
	}
	if req.AssignedArea != "" {
		usr.AssignedArea = req.AssignedArea
	}
	if req.IsActive != nil {
		usr.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, usr); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, usr)
}

func (s *Server) deleteUser(c echo.Context) error {
	if err := s.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
