package assessment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	classGroupTag  = "classgroup"
	classGroupText = "{0} must be one of pre, 1-5 or 6-10"

	examTypeTag  = "examtype"
	examTypeText = "{0} must be FA or SA"
)

// InitValidators registers the assessment validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classGroupTag, classGroupValidation)
	core.RegisterCustomTranslation(validate, translator, classGroupTag, classGroupText)

	_ = validate.RegisterValidation(examTypeTag, examTypeValidation)
	core.RegisterCustomTranslation(validate, translator, examTypeTag, examTypeText)
}

// classGroupValidation only allows canonical class groups.
func classGroupValidation(fl validator.FieldLevel) bool {
	return ClassGroup(fl.Field().String()).IsCanonical()
}

func examTypeValidation(fl validator.FieldLevel) bool {
	typ := ExamType(fl.Field().String())
	for _, et := range ExamTypes {
		if typ == et {
			return true
		}
	}
	return false
}
