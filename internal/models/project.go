package models

import (
	"gorm.io/gorm"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectOnHold   ProjectStatus = "onHold"
	ProjectArchived ProjectStatus = "archived"
)

// Project represents an evaluation project; each project maps to the
// notification room "project:<id>".
type Project struct {
	ID          string        `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"not null"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status" gorm:"not null;default:'active'"`
	OwnerID     string        `json:"ownerId" gorm:"column:owner_id;index"`
	gorm.Model
}

// TableName specifies the table name for Project Model
func (Project) TableName() string {
	return "projects"
}
