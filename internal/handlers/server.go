// Package handlers provides the HTTP API on top of the services
package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"attendance-pulse/internal/repository"
	"attendance-pulse/internal/services"
)

// Server wires the services into an echo application.
type Server struct {
	app           *echo.Echo
	auth          *services.AuthService
	attendance    *services.AttendanceService
	notifications *services.NotificationService
	users         repository.UserRepository
	validate      *validator.Validate
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(
	auth *services.AuthService,
	attendance *services.AttendanceService,
	notifications *services.NotificationService,
	users repository.UserRepository,
) *Server {
	s := &Server{
		app:           echo.New(),
		auth:          auth,
		attendance:    attendance,
		notifications: notifications,
		users:         users,
		validate:      validator.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.Logger())
	s.app.Use(middleware.Recover())

	s.app.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := s.app.Group("/api")

	ag := api.Group("/auth")
	ag.POST("/register", s.register)
	ag.POST("/login", s.login)

	authed := api.Group("", s.requireAuth)

	att := authed.Group("/attendance")
	att.POST("", s.markAttendance)
	att.GET("/today", s.todayAttendance)
	att.GET("/me", s.myAttendance)
	att.GET("", s.allAttendance, s.requireAdmin)
	att.GET("/date/:date", s.attendanceByDate, s.requireAdmin)
	att.POST("/manual", s.manualAttendance, s.requireAdmin)
	att.PATCH("/:id/status", s.updateAttendanceStatus, s.requireAdmin)
	att.DELETE("/:id", s.deleteAttendance)

	nt := authed.Group("/notifications")
	nt.GET("", s.notificationFeed)
	nt.GET("/stream", s.streamNotifications)
	nt.POST("", s.sendNotification, s.requireAdmin)
	nt.POST("/checked", s.markNotificationsChecked)
	nt.POST("/:id/read", s.markNotificationRead)

	ug := authed.Group("/users", s.requireAdmin)
	ug.GET("", s.listUsers)
	ug.GET("/:id", s.getUser)
	ug.PUT("/:id", s.updateUser)
	ug.DELETE("/:id", s.deleteUser)

	authed.GET("/reports/summary", s.attendanceSummary, s.requireAdmin)
}

// Start begins serving on addr and blocks.
func (s *Server) Start(addr string) error {
	return s.app.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
