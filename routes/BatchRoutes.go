package routes

import (
	"vibin_matcher/controllers"

	"github.com/gorilla/mux"
)

func RegisterBatchRoutes(r *mux.Router, controller *controllers.BatchController) {
	batchRouter := r.PathPrefix("/api/batch").Subrouter()
	batchRouter.HandleFunc("/run", controller.HandleRun).Methods("POST")  // ✅ Trigger a matching cycle
	batchRouter.HandleFunc("/last", controller.HandleLast).Methods("GET") // ✅ Result of the last cycle
}
