package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"postpad/app/models"
	"postpad/app/repositories"
	"postpad/app/repositories/mock"
	"postpad/app/services"
	"postpad/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupTestControllers(t *testing.T) (*mux.Router, *services.PostService, *mock.Storage) {
	t.Helper()
	storage := mock.NewStorage()
	service := services.NewPostService(repositories.NewStoragePostRepository(storage, ""), services.Options{})
	renderer, err := views.NewRenderer("me", time.UTC)
	require.NoError(t, err)

	return setupRouter(NewPostController(service, renderer, nil), NewCommentController(service, nil)), service, storage
}

func setupRouter(pc *PostController, cc *CommentController) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", pc.Index).Methods("GET")
	router.HandleFunc("/posts", pc.Create).Methods("POST")
	router.HandleFunc("/posts/{id}", pc.Update).Methods("POST")
	router.HandleFunc("/posts/{id}/edit", pc.Edit).Methods("GET")
	router.HandleFunc("/posts/{id}/delete", pc.ConfirmDelete).Methods("GET")
	router.HandleFunc("/posts/{id}/delete", pc.Delete).Methods("POST")
	router.HandleFunc("/posts/{id}/like", pc.Like).Methods("POST")
	router.HandleFunc("/posts/{id}/comments", cc.Create).Methods("POST")

	router.HandleFunc("/api/posts", pc.Index).Methods("GET")
	router.HandleFunc("/api/posts", pc.Create).Methods("POST")
	router.HandleFunc("/api/posts/{id}", pc.Update).Methods("PUT")
	router.HandleFunc("/api/posts/{id}", pc.Delete).Methods("DELETE")
	router.HandleFunc("/api/posts/{id}/like", pc.Like).Methods("POST")
	router.HandleFunc("/api/posts/{id}/comments", cc.Create).Methods("POST")

	return router
}

func postForm(router http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sendAPI(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebPostFlow(t *testing.T) {
	router, service, _ := setupTestControllers(t)

	t.Run("empty list", func(t *testing.T) {
		w := get(router, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), views.NoResultsText)
	})

	t.Run("create redirects with filter", func(t *testing.T) {
		w := postForm(router, "/posts", url.Values{"title": {"Hello"}, "content": {"World"}, "q": {"hel lo"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/?q=hel+lo", w.Header().Get("Location"))
		assert.Equal(t, 1, service.Len())
	})

	t.Run("create with blank field is silent", func(t *testing.T) {
		w := postForm(router, "/posts", url.Values{"title": {"  "}, "content": {"World"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Equal(t, 1, service.Len())
	})

	t.Run("list shows post", func(t *testing.T) {
		w := get(router, "/?q=HELLO")
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, 1, strings.Count(body, `<article class="post"`))
		assert.Contains(t, body, "<h2>Hello</h2>")
		assert.Contains(t, body, "Like (0)")

		w = get(router, "/?q=absent")
		assert.Contains(t, w.Body.String(), views.NoResultsText)
	})

	id := service.Posts()[0].ID

	t.Run("edit form", func(t *testing.T) {
		w := get(router, "/posts/"+id+"/edit")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `action="/posts/`+id+`"`)
		assert.Contains(t, w.Body.String(), ">Save</button>")

		w = get(router, "/posts/unknown/edit")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("save with blank field warns", func(t *testing.T) {
		w := postForm(router, "/posts/"+id, url.Values{"title": {""}, "content": {"kept draft"}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), views.EmptyFieldsWarning)
		assert.Contains(t, w.Body.String(), "kept draft</textarea>")

		post, err := service.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "Hello", post.Title)
	})

	t.Run("save to unknown post", func(t *testing.T) {
		w := postForm(router, "/posts/unknown", url.Values{"title": {""}, "content": {"draft"}})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = postForm(router, "/posts/unknown", url.Values{"title": {"Hi"}, "content": {"There"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("save", func(t *testing.T) {
		w := postForm(router, "/posts/"+id, url.Values{"title": {"Hi"}, "content": {"Everyone"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)

		post, err := service.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "Hi", post.Title)
		assert.Equal(t, "Everyone", post.Content)
	})

	t.Run("like toggles", func(t *testing.T) {
		w := postForm(router, "/posts/"+id+"/like", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, get(router, "/").Body.String(), `class="liked">Like (1)</button>`)

		postForm(router, "/posts/"+id+"/like", nil)
		assert.Contains(t, get(router, "/").Body.String(), `aria-pressed="false">Like (0)</button>`)
	})

	t.Run("delete asks first", func(t *testing.T) {
		w := get(router, "/posts/"+id+"/delete")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), services.DeletePrompt)

		w = postForm(router, "/posts/"+id+"/delete", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, 1, service.Len())

		w = postForm(router, "/posts/"+id+"/delete", url.Values{"confirm": {"yes"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, 0, service.Len())
	})
}

func TestAPIPostFlow(t *testing.T) {
	router, service, storage := setupTestControllers(t)

	var created models.Post
	t.Run("create post", func(t *testing.T) {
		w := sendAPI(router, http.MethodPost, "/api/posts", `{"title": "Hello", "content": "World"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Hello", created.Title)
		assert.Equal(t, []string{}, created.Likes)
		assert.Equal(t, []models.Comment{}, created.Comments)
	})

	t.Run("validation errors", func(t *testing.T) {
		w := sendAPI(router, http.MethodPost, "/api/posts", `{"title": "", "content": "World"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = sendAPI(router, http.MethodPost, "/api/posts", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = sendAPI(router, http.MethodPut, "/api/posts/"+created.ID, `{"title": "x", "content": " "}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("list posts", func(t *testing.T) {
		w := get(router, "/api/posts?q=WORLD")
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Posts  []*models.Post `json:"posts"`
			Count  int            `json:"count"`
			Filter string         `json:"filter"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, "WORLD", response.Filter)
	})

	t.Run("update post", func(t *testing.T) {
		w := sendAPI(router, http.MethodPut, "/api/posts/"+created.ID, `{"title": "Updated", "content": "Body"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var post models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, "Updated", post.Title)
		assert.True(t, created.Date.Equal(post.Date))
	})

	t.Run("like post", func(t *testing.T) {
		w := sendAPI(router, http.MethodPost, "/api/posts/"+created.ID+"/like", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var post models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, []string{"me"}, post.Likes)
	})

	t.Run("unknown post", func(t *testing.T) {
		w := sendAPI(router, http.MethodPut, "/api/posts/missing", `{"title": "a", "content": "b"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("delete requires confirm", func(t *testing.T) {
		w := sendAPI(router, http.MethodDelete, "/api/posts/"+created.ID, "")
		assert.Equal(t, http.StatusPreconditionRequired, w.Code)
		assert.Equal(t, 1, service.Len())

		w = sendAPI(router, http.MethodDelete, "/api/posts/"+created.ID+"?confirm=true", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 0, service.Len())
	})

	t.Run("persist failure", func(t *testing.T) {
		storage.SetErr = assert.AnError
		defer func() { storage.SetErr = nil }()

		w := sendAPI(router, http.MethodPost, "/api/posts", `{"title": "a", "content": "b"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
