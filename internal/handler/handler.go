// Package handler holds the echo HTTP layer. Handlers translate service
// errors into status codes and never touch gorm directly.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/watermelon-studio/studio-booking/internal/middleware"
	"github.com/watermelon-studio/studio-booking/internal/service"
)

func actor(c echo.Context) service.Actor {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{ID: claims.UserID, Username: claims.Username, Email: claims.Email}
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
