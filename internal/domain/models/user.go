package models

// User пользователь, вошедший через внешний провайдер идентификации
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
