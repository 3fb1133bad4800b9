package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 自定义校验标签 ──

var (
	shortNameTag   = "shortname"
	shortNameText  = "{0} must be non-empty, must not start with '.', and may only contain letters, digits, '_' and '-'"
	shortNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	isoDateTag  = "isodate"
	isoDateText = "{0} must be a date in YYYY-MM-DD format"

	germanDateTag  = "gdate"
	germanDateText = "{0} must be a date in DD.MM.YYYY format"

	anyDateTag  = "anydate"
	anyDateText = "{0} must be a date (DD.MM.YYYY or YYYY-MM-DD)"

	clockTag  = "clock"
	clockText = "{0} must be a time in HH:MM format"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// Validator 返回全局校验器（首次调用时初始化）
func Validator() *validator.Validate {
	once.Do(func() {
		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")
		validate = validator.New()
		initValidators(validate, translator)
	})
	return validate
}

func initValidators(v *validator.Validate, trans ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// 错误信息使用 json 名而非 Go 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(shortNameTag, shortNameValidation)
	registerTranslation(v, trans, shortNameTag, shortNameText)

	_ = v.RegisterValidation(isoDateTag, isoDateValidation)
	registerTranslation(v, trans, isoDateTag, isoDateText)

	_ = v.RegisterValidation(germanDateTag, germanDateValidation)
	registerTranslation(v, trans, germanDateTag, germanDateText)

	_ = v.RegisterValidation(anyDateTag, anyDateValidation)
	registerTranslation(v, trans, anyDateTag, anyDateText)

	_ = v.RegisterValidation(clockTag, clockValidation)
	registerTranslation(v, trans, clockTag, clockText)

	registerTranslation(v, trans, requiredTag, requiredText, true)
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate 校验请求结构体；失败时返回 KindValidation 错误，信息取第一个字段错误
func Validate(req interface{}) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.New(apperr.KindValidation, fe.Translate(translator))
	}
	return apperr.Wrap(apperr.KindValidation, "dto.validate", err)
}

// ValidShortName short_name 规则：非空、不以 '.' 开头、仅含 [A-Za-z0-9_-]
func ValidShortName(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && shortNameRegex.MatchString(s)
}

func shortNameValidation(fl validator.FieldLevel) bool {
	return ValidShortName(fl.Field().String())
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := dates.ParseISO(fl.Field().String())
	return err == nil
}

func germanDateValidation(fl validator.FieldLevel) bool {
	_, err := dates.ParseGerman(fl.Field().String())
	return err == nil
}

func anyDateValidation(fl validator.FieldLevel) bool {
	_, err := dates.Parse(fl.Field().String())
	return err == nil
}

func clockValidation(fl validator.FieldLevel) bool {
	_, err := dates.ParseClock(fl.Field().String())
	return err == nil
}
