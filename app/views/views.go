// Package views renders the post list, filtered by a search term, into
// HTML. Every render rebuilds the whole page from the current posts.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"postpad/app/models"
)

//go:embed layout.html posts/*.html shared/*.html
var files embed.FS

const (
	// NoResultsText replaces the list when the filter matches nothing.
	NoResultsText = "No posts found."
	// EmptyFieldsWarning blocks an edit that blanks title or content.
	EmptyFieldsWarning = "Title and content cannot be empty."

	// DateLayout formats the "Published on" date.
	DateLayout = "January 2, 2006"

	pageTitle = "Blog"
)

// Mode is the display state of a single post. It is never persisted.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	switch m {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Draft holds the values shown in the edit fields.
type Draft struct {
	Title   string
	Content string
}

// Options select what a render shows besides the posts themselves.
type Options struct {
	Filter    string
	EditingID string
	// Draft overrides the stored values in the edit fields, e.g. after a
	// rejected save.
	Draft   *Draft
	Warning string
}

// PostView is one rendered post.
type PostView struct {
	ID          string
	Title       string
	Content     string
	PublishedOn string
	LikeCount   int
	LikeLabel   string
	Liked       bool
	Comments    []models.Comment
	Mode        Mode
	Draft       Draft
	Warning     string
	Filter      string
}

// Editing reports whether the post shows its edit form.
func (p PostView) Editing() bool {
	return p.Mode == Editing
}

// Page is the display tree for the post list.
type Page struct {
	Title     string
	Filter    string
	Posts     []PostView
	NoResults bool
}

// DeletePage asks for confirmation before a deletion.
type DeletePage struct {
	Title  string
	Filter string
	Prompt string
	Post   PostView
}

// Renderer turns posts into pages for one acting user.
type Renderer struct {
	userID    string
	location  *time.Location
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates. Like state is shown for
// userID; dates are formatted in loc (time.Local when nil).
func NewRenderer(userID string, loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &Renderer{userID: userID, location: loc, templates: templates}, nil
}

// loadTemplates loads and parses all templates
func loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	index, err := template.ParseFS(files, "layout.html", "posts/index.html", "shared/comments.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index templates: %w", err)
	}
	templates["index"] = index

	confirm, err := template.ParseFS(files, "layout.html", "posts/delete.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse delete templates: %w", err)
	}
	templates["delete"] = confirm

	return templates, nil
}

// UserID returns the acting user the like state is keyed on.
func (r *Renderer) UserID() string {
	return r.userID
}

// Build projects posts through the filter into a Page.
func (r *Renderer) Build(posts []*models.Post, opts Options) Page {
	page := Page{Title: pageTitle, Filter: opts.Filter, Posts: []PostView{}}

	for _, post := range posts {
		if !post.Matches(opts.Filter) {
			continue
		}
		view := r.postView(post, opts.Filter)
		if post.ID == opts.EditingID {
			view.Mode = Editing
			view.Warning = opts.Warning
			if opts.Draft != nil {
				view.Draft = *opts.Draft
			}
		}
		page.Posts = append(page.Posts, view)
	}

	page.NoResults = len(page.Posts) == 0
	return page
}

// BuildDelete prepares the confirmation page for post.
func (r *Renderer) BuildDelete(post *models.Post, filter, prompt string) DeletePage {
	return DeletePage{
		Title:  pageTitle,
		Filter: filter,
		Prompt: prompt,
		Post:   r.postView(post, filter),
	}
}

func (r *Renderer) postView(post *models.Post, filter string) PostView {
	liked := post.HasLiked(r.userID)
	return PostView{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		PublishedOn: post.Date.In(r.location).Format(DateLayout),
		LikeCount:   post.LikeCount(),
		LikeLabel:   LikeLabel(post.LikeCount()),
		Liked:       liked,
		Comments:    post.Comments,
		Mode:        Viewing,
		Draft:       Draft{Title: post.Title, Content: post.Content},
		Filter:      filter,
	}
}

// LikeLabel is the text of the like toggle.
func LikeLabel(count int) string {
	return fmt.Sprintf("Like (%d)", count)
}

// Render writes the full list page.
func (r *Renderer) Render(w io.Writer, page Page) error {
	return r.templates["index"].ExecuteTemplate(w, "layout", page)
}

// RenderDelete writes the deletion confirmation page.
func (r *Renderer) RenderDelete(w io.Writer, page DeletePage) error {
	return r.templates["delete"].ExecuteTemplate(w, "layout", page)
}
