package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{
			name: "valid post",
			post: &Post{
				ID:      "p1",
				Title:   "Hello",
				Content: "World",
				Date:    time.Now(),
			},
			wantErr: false,
		},
		{
			name: "empty title",
			post: &Post{
				ID:      "p1",
				Title:   "",
				Content: "World",
				Date:    time.Now(),
			},
			wantErr: true,
		},
		{
			name: "empty content",
			post: &Post{
				ID:      "p1",
				Title:   "Hello",
				Content: "",
				Date:    time.Now(),
			},
			wantErr: true,
		},
		{
			name: "zero date",
			post: &Post{
				ID:      "p1",
				Title:   "Hello",
				Content: "World",
			},
			wantErr: true,
		},
		{
			name: "duplicate liker",
			post: &Post{
				ID:      "p1",
				Title:   "Hello",
				Content: "World",
				Date:    time.Now(),
				Likes:   []string{"me", "me"},
			},
			wantErr: true,
		},
		{
			name: "comment without text",
			post: &Post{
				ID:       "p1",
				Title:    "Hello",
				Content:  "World",
				Date:     time.Now(),
				Comments: []Comment{{Author: "Anonymous"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	post := &Post{Title: "Hello", Content: "World"}

	post.BeforeCreate()
	assert.NotEmpty(t, post.ID)
	assert.False(t, post.Date.IsZero())
	assert.Equal(t, time.UTC, post.Date.Location())
	assert.NotNil(t, post.Likes)
	assert.NotNil(t, post.Comments)
	assert.NoError(t, post.Validate())

	id, date := post.ID, post.Date
	post.BeforeCreate()
	assert.Equal(t, id, post.ID)
	assert.Equal(t, date, post.Date)
}

func TestAssignIDs(t *testing.T) {
	posts := []*Post{{ID: "kept"}, {}, {}}

	assert.Equal(t, 2, AssignIDs(posts))
	assert.Equal(t, "kept", posts[0].ID)
	assert.NotEmpty(t, posts[1].ID)
	assert.NotEqual(t, posts[1].ID, posts[2].ID)
	assert.Equal(t, 0, AssignIDs(posts))
}

func TestPostMarshalDate(t *testing.T) {
	post := Post{
		ID:       "a",
		Title:    "Hello",
		Content:  "World",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Likes:    []string{},
		Comments: []Comment{},
	}

	data, err := json.Marshal(&post)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","title":"Hello","content":"World","date":"2024-01-01T00:00:00.000Z","likes":[],"comments":[]}`, string(data))

	var decoded Post
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, post.Date.Equal(decoded.Date))
}

func TestPostToggleLike(t *testing.T) {
	post := &Post{Likes: []string{}}

	liked, err := post.ToggleLike("me")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"me"}, post.Likes)
	assert.Equal(t, 1, post.LikeCount())
	assert.True(t, post.HasLiked("me"))

	liked, err = post.ToggleLike("me")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, post.Likes)
	assert.Equal(t, 0, post.LikeCount())

	t.Run("other likers are kept", func(t *testing.T) {
		post := &Post{Likes: []string{"alice", "me", "bob"}}
		_, err := post.ToggleLike("me")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, post.Likes)
	})

	t.Run("empty user id", func(t *testing.T) {
		_, err := post.ToggleLike("")
		assert.Error(t, err)
	})
}

func TestPostAddComment(t *testing.T) {
	post := &Post{}

	require.NoError(t, post.AddComment(Comment{Author: "Anonymous", Text: "first"}))
	require.NoError(t, post.AddComment(Comment{Author: "Anonymous", Text: "second"}))
	assert.Error(t, post.AddComment(Comment{Author: "Anonymous", Text: ""}))

	require.Len(t, post.Comments, 2)
	assert.Equal(t, "first", post.Comments[0].Text)
	assert.Equal(t, "second", post.Comments[1].Text)
}

func TestPostMatches(t *testing.T) {
	post := &Post{Title: "Hello There", Content: "General Kenobi"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"hello", true},
		{"HELLO", true},
		{"kenobi", true},
		{"o t", true},
		{"grievous", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, post.Matches(tt.term))
		})
	}
}

func TestPostClone(t *testing.T) {
	post := &Post{ID: "p1", Likes: []string{"me"}, Comments: []Comment{{Author: "a", Text: "b"}}}
	clone := post.Clone()

	clone.Likes[0] = "someone"
	clone.Comments[0].Text = "changed"
	assert.Equal(t, "me", post.Likes[0])
	assert.Equal(t, "b", post.Comments[0].Text)
}
