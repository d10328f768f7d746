package models

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Upload изображение базы, отправляемое multipart-полем image
type Upload struct {
	Filename string
	Content  []byte
}

// ContentType определяет MIME-тип по первым байтам файла
func (u *Upload) ContentType() string {
	return http.DetectContentType(u.Content)
}

// Payload данные формы создания/обновления базы
type Payload struct {
	Title   string  `validate:"required,max=255"`
	Link    string  `validate:"required,max=2048"`
	Image   *Upload `validate:"-"`
	OwnerID string  `validate:"max=255"`
}

// Trimmed возвращает копию с обрезанными пробелами, как их отправляет форма
func (p Payload) Trimmed() Payload {
	p.Title = strings.TrimSpace(p.Title)
	p.Link = strings.TrimSpace(p.Link)
	return p
}

// ValidateCreate проверяет форму новой базы: изображение обязательно
func (p Payload) ValidateCreate() error {
	if err := p.ValidateUpdate(); err != nil {
		return err
	}

	if p.Image == nil || len(p.Image.Content) == 0 {
		return &PayloadValidationError{Errors: []string{"image is required"}}
	}

	return nil
}

// ValidateUpdate проверяет форму обновления: изображение можно не передавать
func (p Payload) ValidateUpdate() error {
	var validationErrors []string

	if err := validate.Struct(p); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			validationErrors = append(validationErrors, fieldMessage(fe))
		}
	}

	if p.Image != nil && p.Image.Filename == "" {
		validationErrors = append(validationErrors, "image filename is required")
	}

	if len(validationErrors) > 0 {
		return &PayloadValidationError{Errors: validationErrors}
	}

	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// PayloadValidationError ошибка валидации формы
type PayloadValidationError struct {
	Errors []string
}

func (e *PayloadValidationError) Error() string {
	return fmt.Sprintf("payload validation failed: %s", strings.Join(e.Errors, "; "))
}
