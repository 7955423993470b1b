// validate.go — валидация JSON-запросов (go-playground/validator).
package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// requestValidator — обёртка над go-playground/validator с именами полей из json-тегов.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Регистрация выполняется при старте, ошибка здесь — ошибка программы
	if err := v.RegisterValidation("attachment_category", validateCategory); err != nil {
		panic(fmt.Sprintf("регистрация правила attachment_category: %v", err))
	}

	return &requestValidator{validate: v}
}

// Validate проверяет структуру и возвращает сообщение для пользователя.
func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("поле '%s': %s", fieldPath(fe), errorMessage(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath возвращает путь поля без имени корневой структуры: items[0].id.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("минимум %s элементов", fe.Param())
		}
		return fmt.Sprintf("не меньше %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("не длиннее %s символов", fe.Param())
		}
		return fmt.Sprintf("не больше %s", fe.Param())
	case "gte":
		return fmt.Sprintf("не меньше %s", fe.Param())
	case "attachment_category":
		return "неизвестная категория"
	default:
		return fmt.Sprintf("недопустимое значение (правило '%s')", fe.Tag())
	}
}

// validateCategory принимает только значения перечисления категорий (без учёта регистра).
func validateCategory(fl validator.FieldLevel) bool {
	value := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	return model.Category(value).Valid()
}
