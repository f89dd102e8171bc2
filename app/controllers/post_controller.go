package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"postpad/app/services"
	"postpad/app/views"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
	renderer    *views.Renderer
	logger      *zap.Logger
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, renderer *views.Renderer, logger *zap.Logger) *PostController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostController{
		postService: postService,
		renderer:    renderer,
		logger:      logger,
	}
}

type postPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Index renders the posts matching the q parameter
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("q")

	if isAPI(r) {
		posts := pc.postService.Filter(filter)
		sendJSON(w, http.StatusOK, map[string]interface{}{
			"posts":  posts,
			"count":  len(posts),
			"filter": filter,
		})
		return
	}

	pc.renderList(w, r, http.StatusOK, views.Options{Filter: filter})
}

// Create handles creating a new post. Blank fields are ignored silently
// on the web form and rejected on the API.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		var payload postPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		post, err := pc.postService.Create(payload.Title, payload.Content)
		if err != nil {
			pc.fail(w, r, "Failed to create post", err)
			return
		}
		sendJSON(w, http.StatusCreated, post)
		return
	}

	if err := r.ParseForm(); err != nil {
		sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := pc.postService.Create(r.FormValue("title"), r.FormValue("content")); err != nil && !errors.Is(err, services.ErrInvalidPost) {
		pc.fail(w, r, "Failed to create post", err)
		return
	}
	redirectToList(w, r)
}

// Edit switches one post into its edit form
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := pc.postService.Get(id); err != nil {
		pc.fail(w, r, "Post not found", err)
		return
	}

	pc.renderList(w, r, http.StatusOK, views.Options{
		Filter:    r.URL.Query().Get("q"),
		EditingID: id,
	})
}

// Update saves an edited post. Blank fields keep the edit form open with
// a warning.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if isAPI(r) {
		var payload postPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		post, err := pc.postService.Update(id, payload.Title, payload.Content)
		if err != nil {
			pc.fail(w, r, "Failed to update post", err)
			return
		}
		sendJSON(w, http.StatusOK, post)
		return
	}

	if err := r.ParseForm(); err != nil {
		sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := pc.postService.Get(id); err != nil {
		pc.fail(w, r, "Failed to update post", err)
		return
	}
	title, content := r.FormValue("title"), r.FormValue("content")
	_, err := pc.postService.Update(id, title, content)
	if errors.Is(err, services.ErrInvalidPost) {
		pc.renderList(w, r, http.StatusUnprocessableEntity, views.Options{
			Filter:    r.FormValue("q"),
			EditingID: id,
			Draft:     &views.Draft{Title: title, Content: content},
			Warning:   views.EmptyFieldsWarning,
		})
		return
	}
	if err != nil {
		pc.fail(w, r, "Failed to update post", err)
		return
	}
	redirectToList(w, r)
}

// ConfirmDelete asks before a post is removed
func (pc *PostController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.Get(mux.Vars(r)["id"])
	if err != nil {
		pc.fail(w, r, "Post not found", err)
		return
	}

	page := pc.renderer.BuildDelete(post, r.URL.Query().Get("q"), services.DeletePrompt)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pc.renderer.RenderDelete(w, page); err != nil {
		pc.logger.Error("Template error", zap.Error(err))
	}
}

// Delete removes a post once the request carries a confirmation:
// confirm=yes on the web form, confirm=true on the API.
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	api := isAPI(r)

	confirmed := services.ConfirmFunc(func(string) bool {
		if api {
			return r.URL.Query().Get("confirm") == "true"
		}
		return r.FormValue("confirm") == "yes"
	})

	deleted, err := pc.postService.Delete(id, confirmed)
	if err != nil {
		pc.fail(w, r, "Failed to delete post", err)
		return
	}

	if api {
		if !deleted {
			sendError(w, r, services.DeletePrompt+" Pass confirm=true.", http.StatusPreconditionRequired)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectToList(w, r)
}

// Like toggles the acting user's like on a post
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	post, err := pc.postService.ToggleLike(mux.Vars(r)["id"], pc.renderer.UserID())
	if err != nil {
		pc.fail(w, r, "Failed to like post", err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, post)
		return
	}
	redirectToList(w, r)
}

func (pc *PostController) renderList(w http.ResponseWriter, r *http.Request, status int, opts views.Options) {
	page := pc.renderer.Build(pc.postService.Posts(), opts)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pc.renderer.Render(w, page); err != nil {
		pc.logger.Error("Template error", zap.Error(err))
	}
}

func (pc *PostController) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		pc.logger.Error(message, zap.Error(err), zap.String("path", r.URL.Path))
	}
	sendError(w, r, message+": "+err.Error(), status)
}

// Helper functions for consistent response handling

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api") || r.Header.Get("Accept") == "application/json"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPost), errors.Is(err, services.ErrEmptyComment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// redirectToList sends the browser back to the list with its search term
// so the re-render keeps the current filter.
func redirectToList(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := r.FormValue("q"); q != "" {
		target += "?q=" + url.QueryEscape(q)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if isAPI(r) {
		sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}
