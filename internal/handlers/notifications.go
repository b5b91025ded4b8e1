package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sendNotificationRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

func (s *Server) notificationFeed(c echo.Context) error {
	feed, err := s.notifications.Feed(c.Request().Context(), viewerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, feed)
}

// streamNotifications holds an SSE connection open and pushes a full feed
// snapshot on every change batch. The subscription is torn down when the
// client disconnects; a failed subscription is reported once, not retried.
func (s *Server) streamNotifications(c echo.Context) error {
	ch, err := s.notifications.Open(c.Request().Context(), viewerFrom(c))
	if err != nil {
		return httpError(err)
	}
	defer ch.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for feed := range ch.Updates() {
		data, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
			// client went away
			return nil
		}
		res.Flush()
	}
	return nil
}

func (s *Server) sendNotification(c echo.Context) error {
	var req sendNotificationRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	n, err := s.notifications.SendDirectedMessage(
		c.Request().Context(), req.RecipientID, req.Title, req.Message, viewerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (s *Server) markNotificationsChecked(c echo.Context) error {
	if err := s.notifications.MarkChecked(c.Request().Context(), viewerFrom(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) markNotificationRead(c echo.Context) error {
	if err := s.notifications.MarkMessageRead(c.Request().Context(), c.Param("id"), viewerFrom(c).ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
