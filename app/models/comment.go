package models

import "strings"

// NewComment builds a comment from raw input, trimming the text.
func NewComment(author, text string) Comment {
	return Comment{
		Author: strings.TrimSpace(author),
		Text:   strings.TrimSpace(text),
	}
}

// Validate checks if the comment meets all validation requirements
func (c Comment) Validate() error {
	return validate.Struct(c)
}
