package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// httpError maps the pipeline's error taxonomy onto HTTP status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case models.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case models.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case models.IsConflict(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case models.IsModelInvocation(err):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case models.IsApply(err):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
