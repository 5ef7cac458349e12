package repository

import (
	"textwatch/internal/dto"
	"textwatch/internal/model"
)

// PassRepository defines the interface for OCR pass operations.
type PassRepository interface {
	// Create operations
	Insert(p *model.Pass) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Pass, error)
	GetAll(filter *dto.PassFilter) ([]model.Pass, error)
	GetTotalCount(filter *dto.PassFilter) (int, error)
	GetSessions() ([]string, error)

	// Delete operations
	DeleteBySession(sessionID string) error
}

// RegionRepository defines the interface for recognized region operations.
type RegionRepository interface {
	// Create operations
	InsertBatch(regions []model.Region) error

	// Read operations
	GetByPassID(passID int64) ([]model.Region, error)
}
