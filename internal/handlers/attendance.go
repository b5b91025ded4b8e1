package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"attendance-pulse/internal/services"
)

type markRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=present absent late leave"`
}

type manualRequest struct {
	UserID string `json:"userId" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Status string `json:"status" validate:"omitempty,oneof=present absent late leave"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent late leave"`
}

type todayResponse struct {
	Marked bool        `json:"marked"`
	Record interface{} `json:"record,omitempty"`
}

// markAttendance records the viewer's own presence for today.
func (s *Server) markAttendance(c echo.Context) error {
	var req markRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	viewer := viewerFrom(c)
	rec, err := s.attendance.Mark(c.Request().Context(), services.MarkInput{
		UserID:   viewer.ID,
		UserName: viewer.FullName,
		Status:   req.Status,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// manualAttendance lets an admin backfill a record for any user and day.
// The same one-per-day rule applies.
func (s *Server) manualAttendance(c echo.Context) error {
	var req manualRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	target, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return httpError(err)
	}

	at, _ := time.Parse("2006-01-02", req.Date)
	rec, err := s.attendance.Mark(ctx, services.MarkInput{
		UserID:   target.ID,
		UserName: target.FullName,
		Status:   req.Status,
		At:       at,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) todayAttendance(c echo.Context) error {
	rec, marked, err := s.attendance.Today(c.Request().Context(), viewerFrom(c).ID)
	if err != nil {
		return httpError(err)
	}
	resp := todayResponse{Marked: marked}
	if marked {
		resp.Record = rec
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) myAttendance(c echo.Context) error {
	records, err := s.attendance.History(c.Request().Context(), viewerFrom(c).ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) allAttendance(c echo.Context) error {
	records, err := s.attendance.All(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) attendanceByDate(c echo.Context) error {
	records, err := s.attendance.ByDate(c.Request().Context(), c.Param("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) updateAttendanceStatus(c echo.Context) error {
	var req statusRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	viewer := viewerFrom(c)
	if err := s.attendance.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status, viewer.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// deleteAttendance is open to admins and, for their own records, to clients.
func (s *Server) deleteAttendance(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	viewer := viewerFrom(c)

	if !viewer.IsAdmin() {
		rec, err := s.attendance.ByID(ctx, id)
		if err != nil {
			return httpError(err)
		}
		if rec.UserID != viewer.ID {
			return echo.NewHTTPError(http.StatusForbidden, "cannot delete another user's record")
		}
	}

	if err := s.attendance.Delete(ctx, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) attendanceSummary(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" || to == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to query parameters are required")
	}

	summaries, err := s.attendance.Summary(c.Request().Context(), from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}
