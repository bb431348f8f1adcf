package models

// Page is the envelope returned by find operations.
type Page[T any] struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
	Data  []T `json:"data"`
}
