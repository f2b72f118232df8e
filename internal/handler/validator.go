package handler

import (
	"errors"

	"careerpath_go/internal/model"
	"careerpath_go/internal/taxonomy"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 在 gin 的 validator 上注册 filtertype 规则，启动时调用一次。
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return v.RegisterValidation("filtertype", func(fl validator.FieldLevel) bool {
		return taxonomy.IsKnownType(model.FilterType(fl.Field().String()))
	})
}
