package http

import (
	"net/http"

	"artfactory/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// GetWorkers handles GET /api/v1/workers.
func (s *Server) GetWorkers(c echo.Context) error {
	query, err := queries.NewGetWorkersQuery()
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.uc.GetWorkers.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toWorkers(res))
}
