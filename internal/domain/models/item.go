package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ItemID непрозрачный идентификатор базы. Бэкенд отдает его числом или строкой.
type ItemID string

func (id ItemID) String() string {
	return string(id)
}

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ItemID(n.String())

	return nil
}

func (id ItemID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Owner снимок автора на момент загрузки списка
type Owner struct {
	Name      string `json:"name"`
	AvatarRef string `json:"avatar,omitempty"`
}

// Item представляет собой опубликованную базу (изображение + ссылка)
type Item struct {
	ID           ItemID     `json:"id"`
	Title        string     `json:"name"`
	ImageRef     string     `json:"imageUrl"`             // Путь к изображению как он хранится на бэкенде
	ImageURL     string     `json:"displayUrl,omitempty"` // Абсолютный URL для отображения
	ExternalLink string     `json:"link"`
	OwnerID      string     `json:"clerkUserId,omitempty"` // Пусто для старых/анонимных баз
	Owner        Owner      `json:"user"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// OwnedBy сообщает, может ли пользователь редактировать базу.
// Права проверяет бэкенд, здесь только решение о показе кнопок.
func (i Item) OwnedBy(userID string) bool {
	return userID != "" && i.OwnerID == userID
}

// ItemPage одна страница списка баз
type ItemPage struct {
	Items      []Item
	Page       int
	TotalPages int
	Total      int
}

// ListParams параметры запроса списка
type ListParams struct {
	Page  int
	Limit int
	Sort  string
	Month string // YYYY-MM, пусто = за все время
}
