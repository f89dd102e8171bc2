package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"postpad/app/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	postService *services.PostService
	logger      *zap.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(postService *services.PostService, logger *zap.Logger) *CommentController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentController{postService: postService, logger: logger}
}

type commentPayload struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Create appends a comment to a post. Blank text is a silent no-op on
// the web form and a 422 on the API.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if isAPI(r) {
		var payload commentPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		post, err := cc.postService.AddComment(id, payload.Author, payload.Text)
		if err != nil {
			cc.fail(w, r, err)
			return
		}
		sendJSON(w, http.StatusCreated, post)
		return
	}

	if err := r.ParseForm(); err != nil {
		sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	_, err := cc.postService.AddComment(id, r.FormValue("author"), r.FormValue("text"))
	if err != nil && !errors.Is(err, services.ErrEmptyComment) {
		cc.fail(w, r, err)
		return
	}
	redirectToList(w, r)
}

func (cc *CommentController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		cc.logger.Error("Failed to add comment", zap.Error(err), zap.String("path", r.URL.Path))
	}
	sendError(w, r, "Failed to add comment: "+err.Error(), status)
}
