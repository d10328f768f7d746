package models

// MonthBucket месяц публикаций с количеством баз, используется в фильтре
type MonthBucket struct {
	Key       string `json:"monthYear"`
	Label     string `json:"displayName"`
	ItemCount int    `json:"count"`
}
