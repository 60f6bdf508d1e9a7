package controller

import (
	"fmt"

	"blog-api/internal/errs"

	"github.com/gin-gonic/gin"
)

type idURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

func bindID(ctx *gin.Context) (uint, error) {
	var uri idURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		return 0, invalid(err)
	}
	return uri.ID, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrValidation, err)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"omitempty,role"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type listUsersQuery struct {
	Inactive bool `form:"inactive"`
}

type createPostRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Author      string `json:"author" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=5000"`
	Age         *int   `json:"age" binding:"omitempty,min=0,max=150"`
}

type updatePostRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Author      *string `json:"author" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Age         *int    `json:"age" binding:"omitempty,min=0,max=150"`
}

type listPostsQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Author    string `form:"author" binding:"max=100"`
	Title     string `form:"title" binding:"max=200"`
	Search    string `form:"search" binding:"max=200"`
	MinAge    *int   `form:"minAge" binding:"omitempty,min=0,max=150"`
	MaxAge    *int   `form:"maxAge" binding:"omitempty,min=0,max=150"`
	SortBy    string `form:"sortBy" binding:"omitempty,sortfield"`
	SortOrder string `form:"sortOrder" binding:"omitempty,sortorder"`
}
