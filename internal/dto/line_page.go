package dto

import "textwatch/internal/model"

// LinePage is one page of the line history API.
type LinePage struct {
	Lines []model.Pass `json:"lines"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}
