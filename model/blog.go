package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxExcerptLength = 300

var ErrInvalidBlogPost = errors.New("invalid blog post")

// BlogCategories are the categories accepted for blog posts. They differ
// from article categories.
var BlogCategories = []string{"AI", "Software", "Hardware", "Opinion", "Tutorial", "Review"}

type BlogPost struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Content       string             `json:"content" bson:"content"`
	Excerpt       string             `json:"excerpt" bson:"excerpt"`
	Author        string             `json:"author" bson:"author"`
	Category      string             `json:"category" bson:"category"`
	Tags          []string           `json:"tags" bson:"tags"`
	ImageURL      string             `json:"imageUrl" bson:"imageUrl"`
	Published     bool               `json:"published" bson:"published"`
	PublishedDate time.Time          `json:"publishedDate" bson:"publishedDate"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BlogPostInput is the admin payload for creating or patching a post. Nil
// fields are left untouched on update.
type BlogPostInput struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	Category  *string   `json:"category"`
	Tags      *[]string `json:"tags"`
	ImageURL  *string   `json:"imageUrl"`
	Published *bool     `json:"published"`
}

// NewBlogPost builds a post from input, applying defaults and validation.
func NewBlogPost(in BlogPostInput, now time.Time) (BlogPost, error) {
	post := BlogPost{
		Author:        "Admin",
		Category:      "Opinion",
		Tags:          []string{},
		Published:     true,
		PublishedDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	in.apply(&post)
	if err := post.Validate(); err != nil {
		return BlogPost{}, err
	}
	return post, nil
}

// Apply merges a patch into an existing post and re-validates it.
func (in BlogPostInput) Apply(post BlogPost, now time.Time) (BlogPost, error) {
	in.apply(&post)
	post.UpdatedAt = now
	if err := post.Validate(); err != nil {
		return BlogPost{}, err
	}
	return post, nil
}

func (in BlogPostInput) apply(post *BlogPost) {
	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if in.Tags != nil {
		tags := make([]string, 0, len(*in.Tags))
		for _, tag := range *in.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		post.Tags = tags
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.Published != nil {
		post.Published = *in.Published
	}
}

func (p BlogPost) Validate() error {
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidBlogPost)
	case p.Content == "":
		return fmt.Errorf("%w: content is required", ErrInvalidBlogPost)
	case p.Excerpt == "":
		return fmt.Errorf("%w: excerpt is required", ErrInvalidBlogPost)
	case utf8.RuneCountInString(p.Excerpt) > MaxExcerptLength:
		return fmt.Errorf("%w: excerpt exceeds %d characters", ErrInvalidBlogPost, MaxExcerptLength)
	}
	for _, c := range BlogCategories {
		if p.Category == c {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown category %q", ErrInvalidBlogPost, p.Category)
}
