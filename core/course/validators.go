package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

var (
	moduleTypeTag  = "moduletype"
	moduleTypeText = "invalid module type"

	courseStatusTag  = "coursestatus"
	courseStatusText = "invalid course status"
)

// InitValidators registers this package's custom validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(moduleTypeTag, moduleTypeValidation)
	core.RegisterCustomTranslation(validate, translator, moduleTypeTag, moduleTypeText)

	_ = validate.RegisterValidation(courseStatusTag, courseStatusValidation)
	core.RegisterCustomTranslation(validate, translator, courseStatusTag, courseStatusText)
}

func moduleTypeValidation(fl validator.FieldLevel) bool {
	return ModuleType(fl.Field().String()).Valid()
}

func courseStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
