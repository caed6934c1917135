package dto

import "github.com/google/uuid"

// ListFilter contains query parameters for organization listing endpoints.
type ListFilter struct {
	Q          string
	Profession string
	Country    string
	City       string
	Province   string
	Sector     string
	Language   string
	MinQuality *int
	RunID      *uuid.UUID
	Sort       string
	Page       int
	PerPage    int
}
