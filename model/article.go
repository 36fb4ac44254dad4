package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryAI       Category = "AI"
	CategorySoftware Category = "Software"
	CategoryHardware Category = "Hardware"
	CategoryCrypto   Category = "Crypto/Stocks"
	CategoryGeneral  Category = "General"
)

// Categories lists every category an article can carry.
var Categories = []Category{
	CategoryAI,
	CategorySoftware,
	CategoryHardware,
	CategoryCrypto,
	CategoryGeneral,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Article struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Summary       string             `json:"summary" bson:"summary"`
	SourceURL     string             `json:"sourceUrl" bson:"sourceUrl"`
	SourceName    string             `json:"sourceName" bson:"sourceName"`
	ImageURL      string             `json:"imageUrl" bson:"imageUrl"`
	Category      Category           `json:"category" bson:"category"`
	PublishedDate time.Time          `json:"publishedDate" bson:"publishedDate"`
	FetchedDate   time.Time          `json:"fetchedDate" bson:"fetchedDate"`
	Approved      bool               `json:"approved" bson:"approved"`
	Featured      bool               `json:"featured" bson:"featured"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type DashboardStats struct {
	TotalArticles   int64 `json:"totalArticles"`
	PendingArticles int64 `json:"pendingArticles"`
	TotalBlogPosts  int64 `json:"totalBlogPosts"`
	DraftBlogPosts  int64 `json:"draftBlogPosts"`
}
