package model

import "time"

type BlogPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null;index" json:"title"`
	Author      string    `gorm:"size:100;not null;index" json:"author"`
	Description string    `gorm:"type:text" json:"description"`
	Age         *int      `json:"age"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"isDeleted"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (BlogPost) TableName() string { return "blog_posts" }

// Page is one slice of a filtered, sorted listing.
type Page[T any] struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Items       []T   `json:"items"`
}
