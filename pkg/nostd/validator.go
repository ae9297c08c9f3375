package nostd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
)

// CustomValidator echo.Validator 的实现，校验失败时返回可读的错误信息
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

func (cv *CustomValidator) TransInit() error {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	cv.trans = trans
	return entranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.Validator.Struct(i)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && cv.trans != nil {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, e.Translate(cv.trans))
		}
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
