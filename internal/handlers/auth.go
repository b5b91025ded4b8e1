package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/services"
)

type registerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"fullName" validate:"required"`
	Role         string `json:"role" validate:"omitempty,oneof=admin client"`
	EmployeeID   string `json:"employeeId" validate:"required"`
	HomeAddress  string `json:"homeAddress"`
	Contact      string `json:"contact"`
	Gender       string `json:"gender" validate:"omitempty,oneof=male female"`
	AssignedArea string `json:"assignedArea"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	usr, err := s.auth.Register(c.Request().Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Role:         req.Role,
		EmployeeID:   req.EmployeeID,
		HomeAddress:  req.HomeAddress,
		Contact:      req.Contact,
		Gender:       req.Gender,
		AssignedArea: req.AssignedArea,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, usr)
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	token, usr, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: *usr})
}
