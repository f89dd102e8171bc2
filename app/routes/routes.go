package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"postpad/app/controllers"
	"postpad/app/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const idPattern = "{id:[0-9a-zA-Z-]+}"

// SetupRoutes defines the application's web and API routes and returns
// a router.
func SetupRoutes(postController *controllers.PostController, commentController *controllers.CommentController, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.Index).Methods("GET")
	apiPosts.HandleFunc("", postController.Create).Methods("POST")
	apiPosts.HandleFunc("/"+idPattern, postController.Update).Methods("PUT")
	apiPosts.HandleFunc("/"+idPattern, postController.Delete).Methods("DELETE")
	apiPosts.HandleFunc("/"+idPattern+"/like", postController.Like).Methods("POST")
	apiPosts.HandleFunc("/"+idPattern+"/comments", commentController.Create).Methods("POST")

	// Web routes
	router.HandleFunc("/", postController.Index).Methods("GET")

	posts := router.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/"+idPattern, postController.Update).Methods("POST")
	posts.HandleFunc("/"+idPattern+"/edit", postController.Edit).Methods("GET")
	posts.HandleFunc("/"+idPattern+"/delete", postController.ConfirmDelete).Methods("GET")
	posts.HandleFunc("/"+idPattern+"/delete", postController.Delete).Methods("POST")
	posts.HandleFunc("/"+idPattern+"/like", postController.Like).Methods("POST")
	posts.HandleFunc("/"+idPattern+"/comments", commentController.Create).Methods("POST")

	return router
}
