package conditions

import (
	"net/http"

	"riverwatch/internal/modules/conditions/controller"
)

func RegisterFeature(mux *http.ServeMux, svc controller.ConditionsService, opts controller.Options) {
	conditionsController := controller.NewConditionsController(svc, opts)
	conditionsController.RegisterRoutes(mux)
}
