package handlers

import (
	"restoflow-api/config"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding rules used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return config.IsPIN(fl.Field().String())
	})
}
