package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"asteritime/internal/model"
)

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseTaskStatus(fl.Field().String())
		return ok
	})
}
