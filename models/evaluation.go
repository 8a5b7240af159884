package models

import (
	"time"
)

// Criterion is an evaluation criterion grouped under a pillar
// (e.g. behaviour, execution, management).
type Criterion struct {
	CriterionID int        `gorm:"primaryKey;column:criterion_id" json:"criterion_id"`
	Name        string     `gorm:"column:name" json:"name"`
	Pillar      string     `gorm:"column:pillar" json:"pillar"`
	IsActive    bool       `gorm:"column:is_active" json:"is_active"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// SelfEvaluation is a collaborator's own assessment for one cycle.
// At most one per (user, cycle).
type SelfEvaluation struct {
	SelfEvaluationID int        `gorm:"primaryKey;column:self_evaluation_id" json:"self_evaluation_id"`
	CycleID          int        `gorm:"column:cycle_id" json:"cycle_id"`
	UserID           int        `gorm:"column:user_id" json:"user_id"`
	Status           string     `gorm:"column:status" json:"status"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`

	Items []SelfEvaluationItem `gorm:"foreignKey:SelfEvaluationID" json:"items,omitempty"`
	User  *User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// SelfEvaluationItem scores a single criterion. Justification is stored
// encrypted (see utils.EncryptField).
type SelfEvaluationItem struct {
	ItemID           int    `gorm:"primaryKey;column:item_id" json:"item_id"`
	SelfEvaluationID int    `gorm:"column:self_evaluation_id" json:"self_evaluation_id"`
	CriterionID      int    `gorm:"column:criterion_id" json:"criterion_id"`
	Score            int    `gorm:"column:score" json:"score"`
	ScoreLabel       string `gorm:"column:score_label" json:"score_label"`
	Justification    string `gorm:"column:justification" json:"justification"`
}

// ManagerEvaluation is a manager's assessment of one collaborator for one
// cycle. At most one per (evaluator, evaluatee, cycle).
type ManagerEvaluation struct {
	ManagerEvaluationID int        `gorm:"primaryKey;column:manager_evaluation_id" json:"manager_evaluation_id"`
	CycleID             int        `gorm:"column:cycle_id" json:"cycle_id"`
	EvaluatorID         int        `gorm:"column:evaluator_id" json:"evaluator_id"`
	EvaluateeID         int        `gorm:"column:evaluatee_id" json:"evaluatee_id"`
	Status              string     `gorm:"column:status" json:"status"`
	CreateAt            *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt            *time.Time `gorm:"column:update_at" json:"update_at"`

	Items     []ManagerEvaluationItem `gorm:"foreignKey:ManagerEvaluationID" json:"items,omitempty"`
	Evaluatee *User                   `gorm:"foreignKey:EvaluateeID" json:"evaluatee,omitempty"`
}

type ManagerEvaluationItem struct {
	ItemID              int    `gorm:"primaryKey;column:item_id" json:"item_id"`
	ManagerEvaluationID int    `gorm:"column:manager_evaluation_id" json:"manager_evaluation_id"`
	CriterionID         int    `gorm:"column:criterion_id" json:"criterion_id"`
	Score               int    `gorm:"column:score" json:"score"`
	ScoreLabel          string `gorm:"column:score_label" json:"score_label"`
	Justification       string `gorm:"column:justification" json:"justification"`
}

// PeerEvaluation is one colleague's 360 feedback about another for one cycle.
// Strengths and improvement points are stored encrypted.
type PeerEvaluation struct {
	PeerEvaluationID  int        `gorm:"primaryKey;column:peer_evaluation_id" json:"peer_evaluation_id"`
	CycleID           int        `gorm:"column:cycle_id" json:"cycle_id"`
	EvaluatorID       int        `gorm:"column:evaluator_id" json:"evaluator_id"`
	EvaluateeID       int        `gorm:"column:evaluatee_id" json:"evaluatee_id"`
	Score             float64    `gorm:"column:score" json:"score"`
	Strengths         string     `gorm:"column:strengths" json:"strengths"`
	ImprovementPoints string     `gorm:"column:improvement_points" json:"improvement_points"`
	MotivationLabel   string     `gorm:"column:motivation_label" json:"motivation_label"`
	CreateAt          *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt          *time.Time `gorm:"column:update_at" json:"update_at"`

	Projects  []PeerEvaluationProject `gorm:"foreignKey:PeerEvaluationID" json:"projects,omitempty"`
	Evaluatee *User                   `gorm:"foreignKey:EvaluateeID" json:"evaluatee,omitempty"`
}

// PeerEvaluationProject links a peer evaluation to a project the pair worked
// on together and for how long.
type PeerEvaluationProject struct {
	ID                 int    `gorm:"primaryKey;column:id" json:"id"`
	PeerEvaluationID   int    `gorm:"column:peer_evaluation_id" json:"peer_evaluation_id"`
	ProjectName        string `gorm:"column:project_name" json:"project_name"`
	CollaborationMonths int   `gorm:"column:collaboration_months" json:"collaboration_months"`
}

// MentorToCollaboratorEvaluation is a mentor's assessment of a mentee for one
// cycle. At most one per (mentor, collaborator, cycle).
type MentorToCollaboratorEvaluation struct {
	EvaluationID   int        `gorm:"primaryKey;column:evaluation_id" json:"evaluation_id"`
	CycleID        int        `gorm:"column:cycle_id" json:"cycle_id"`
	MentorID       int        `gorm:"column:mentor_id" json:"mentor_id"`
	CollaboratorID int        `gorm:"column:collaborator_id" json:"collaborator_id"`
	Score          int        `gorm:"column:score" json:"score"`
	Justification  string     `gorm:"column:justification" json:"justification"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
}

// FinalScore is the committee's consolidated score for a collaborator in one
// cycle. The numeric value is stored encrypted; at most one per (user, cycle).
type FinalScore struct {
	FinalScoreID int        `gorm:"primaryKey;column:final_score_id" json:"final_score_id"`
	CycleID      int        `gorm:"column:cycle_id" json:"cycle_id"`
	UserID       int        `gorm:"column:user_id" json:"user_id"`
	FinalScore   string     `gorm:"column:final_score" json:"final_score"`
	Summary      string     `gorm:"column:summary" json:"summary"`
	AdjusterID   *int       `gorm:"column:adjuster_id" json:"adjuster_id,omitempty"`
	Status       string     `gorm:"column:status" json:"status"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides
func (Criterion) TableName() string {
	return "criteria"
}

func (SelfEvaluation) TableName() string {
	return "self_evaluations"
}

func (SelfEvaluationItem) TableName() string {
	return "self_evaluation_items"
}

func (ManagerEvaluation) TableName() string {
	return "manager_evaluations"
}

func (ManagerEvaluationItem) TableName() string {
	return "manager_evaluation_items"
}

func (PeerEvaluation) TableName() string {
	return "peer_evaluations"
}

func (PeerEvaluationProject) TableName() string {
	return "peer_evaluation_projects"
}

func (MentorToCollaboratorEvaluation) TableName() string {
	return "mentor_to_collaborator_evaluations"
}

func (FinalScore) TableName() string {
	return "final_scores"
}

// ScoreLabelFor maps a 1-5 score to its display label.
func ScoreLabelFor(score int) string {
	switch score {
	case 1:
		return "Fica muito abaixo do esperado"
	case 2:
		return "Fica abaixo do esperado"
	case 3:
		return "Atinge o esperado"
	case 4:
		return "Fica acima do esperado"
	case 5:
		return "Supera muito o esperado"
	default:
		return ""
	}
}
