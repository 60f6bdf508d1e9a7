package router

import (
	"strings"

	"blog-api/internal/model"
	"blog-api/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func registerValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("sortfield", sortFieldValidator)
		_ = v.RegisterValidation("sortorder", sortOrderValidator)
		_ = v.RegisterValidation("role", roleValidator)
	}
}

// sortFieldValidator accepts the public post sort keys (id, title, author,
// age, createdAt, updatedAt).
func sortFieldValidator(fl validator.FieldLevel) bool {
	return service.IsSortField(fl.Field().String())
}

// sortOrderValidator accepts ASC or DESC in any letter case.
func sortOrderValidator(fl validator.FieldLevel) bool {
	order := fl.Field().String()
	return strings.EqualFold(order, "ASC") || strings.EqualFold(order, "DESC")
}

func roleValidator(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}
