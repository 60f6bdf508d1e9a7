package controller

import (
	"net/http"

	"blog-api/internal/service"
	"blog-api/internal/utils"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlogController struct {
	blogService service.BlogService
	logger      logger.Logger
}

func NewBlogController(
	blogService service.BlogService,
	logger logger.Logger,
) *BlogController {
	return &BlogController{
		blogService: blogService,
		logger:      logger.With(zap.String("module", "blog_controller")),
	}
}

func (c *BlogController) List(ctx *gin.Context) {
	var q listPostsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	page, err := c.blogService.List(ctx.Request.Context(), service.ListQuery{
		Page:      q.Page,
		Limit:     q.Limit,
		Author:    q.Author,
		Title:     q.Title,
		Search:    q.Search,
		MinAge:    q.MinAge,
		MaxAge:    q.MaxAge,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// All lists every post, soft-deleted ones included.
func (c *BlogController) All(ctx *gin.Context) {
	posts, err := c.blogService.ListAll(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, posts)
}

func (c *BlogController) Get(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	post, err := c.blogService.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

func (c *BlogController) Create(ctx *gin.Context) {
	var req createPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}
	post, err := c.blogService.Create(ctx.Request.Context(), service.CreatePostInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Age:         req.Age,
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Created(ctx, post)
}

func (c *BlogController) Update(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	var req updatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	post, err := c.blogService.Update(ctx.Request.Context(), id, service.UpdatePostInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Age:         req.Age,
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

func (c *BlogController) Delete(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	ok, err := c.blogService.SoftDelete(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "blog not found or already deleted")
		return
	}
	utils.Message(ctx, "blog deleted successfully")
}

func (c *BlogController) Restore(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	ok, err := c.blogService.Restore(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "blog not found or not deleted")
		return
	}
	utils.Message(ctx, "blog restored successfully")
}

func (c *BlogController) Reorganize(ctx *gin.Context) {
	n, err := c.blogService.Reorganize(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reorganized": n})
}
