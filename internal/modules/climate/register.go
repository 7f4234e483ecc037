package climate

import (
	"database/sql"
	"net/http"

	"climate-server/internal/db"
	"climate-server/internal/modules/climate/controller"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/service"
)

// RegisterFeature mounts the climate routes on mux and returns the service so
// the caller can reuse it for readiness checks.
func RegisterFeature(mux *http.ServeMux, conn *sql.DB, dialect db.Dialect) *service.Service {
	climateRepository := repository.NewRepository(conn, dialect)
	climateService := service.NewService(climateRepository)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
	return climateService
}
