package social

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/[A-Za-z0-9._-]{1,100}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里用 json 字段名，和请求体保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("github_repo", func(fl validator.FieldLevel) bool {
		return repoPattern.MatchString(fl.Field().String())
	})
	return v
}

// SplitRepository 把 owner/name 拆开。
func SplitRepository(s string) (owner, name string, ok bool) {
	if !repoPattern.MatchString(s) {
		return "", "", false
	}
	owner, name, _ = strings.Cut(s, "/")
	return owner, name, true
}

func validationMessage(err error) string {
	ves, ok := err.(validator.ValidationErrors)
	if !ok || len(ves) == 0 {
		return "Invalid data"
	}
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "e164":
		return fmt.Sprintf("%s must be an E.164 phone number", fe.Field())
	case "github_repo":
		return fmt.Sprintf("%s must be in owner/name form", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
