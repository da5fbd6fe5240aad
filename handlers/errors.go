package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"pnodedash/models"
)

// StatusForError picks the HTTP status a gateway failure is reported with.
func StatusForError(err error) int {
	gwErr, ok := models.AsGatewayError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch gwErr.Kind {
	case models.ErrKindTimeout:
		return http.StatusRequestTimeout
	case models.ErrKindHTTP:
		if gwErr.StatusCode >= 400 && gwErr.StatusCode <= 599 {
			return gwErr.StatusCode
		}
		return http.StatusInternalServerError
	case models.ErrKindMalformedResponse, models.ErrKindRPC:
		return http.StatusBadGateway
	default:
		// Config kinds and NetworkError.
		return http.StatusInternalServerError
	}
}

func respondGatewayError(c echo.Context, err error) error {
	status := StatusForError(err)
	body := map[string]string{"error": err.Error()}

	if gwErr, ok := models.AsGatewayError(err); ok {
		body["error"] = gwErr.Message
		if gwErr.Kind == models.ErrKindHTTP {
			body["body"] = gwErr.Body
		}
	}

	log.Error().Err(err).Int("status", status).Str("path", c.Path()).Msg("Upstream fetch failed")
	return c.JSON(status, body)
}
