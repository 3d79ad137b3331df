package models

import (
	"gorm.io/gorm"
)

// EvaluationStatus represents the status of an evaluation assignment
type EvaluationStatus string

const (
	EvaluationPending    EvaluationStatus = "pending"
	EvaluationInProgress EvaluationStatus = "inProgress"
	EvaluationCompleted  EvaluationStatus = "completed"
)

// EvaluationPriority represents the priority of an evaluation
type EvaluationPriority string

const (
	EvalPriorityHigh   EvaluationPriority = "high"
	EvalPriorityMedium EvaluationPriority = "medium"
	EvalPriorityLow    EvaluationPriority = "low"
)

// Evaluator represents the user an evaluation is assigned to
type Evaluator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Evaluation represents one evaluation assignment within a project
type Evaluation struct {
	ID          string             `json:"id" gorm:"primaryKey"`
	Title       string             `json:"title" gorm:"not null"`
	Description string             `json:"description"`
	Status      EvaluationStatus   `json:"status" gorm:"not null;default:'pending'"`
	ProjectID   string             `json:"projectId" gorm:"column:project_id;index"`
	EvaluatorID string             `json:"-" gorm:"column:evaluator_id;index"`
	Evaluator   Evaluator          `json:"evaluator" gorm:"-"`
	Score       *int               `json:"score"`
	Comments    string             `json:"comments"`
	DueDate     string             `json:"dueDate" gorm:"column:due_date"`
	Priority    EvaluationPriority `json:"priority" gorm:"default:'medium'"`
	Reminded    bool               `json:"-" gorm:"column:reminded;default:false"`
	UserID      string             `json:"-" gorm:"column:user_id;index"` // creator
	gorm.Model
}

// TableName specifies the table name for Evaluation Model
func (Evaluation) TableName() string {
	return "evaluations"
}
