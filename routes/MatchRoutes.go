package routes

import (
	"vibin_matcher/controllers"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match lookups under /api/match
func RegisterMatchRoutes(r *mux.Router, controller *controllers.MatchController) {
	matchRouter := r.PathPrefix("/api/match").Subrouter()
	matchRouter.HandleFunc("/get", controller.HandleGetMatches).Methods("POST") // ✅ Get matches based on userId
}
