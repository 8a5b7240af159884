package models

import (
	"time"
)

// Role IDs as seeded in the roles table.
const (
	RoleCollaborator = 1
	RoleManager      = 2
	RoleCommittee    = 3
	RoleAdmin        = 4
	RoleMentor       = 5
)

type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname string     `gorm:"column:user_lname" json:"user_lname"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	RoleID    int        `gorm:"column:role_id" json:"role_id"`
	JobTitle  *string    `gorm:"column:job_title" json:"job_title,omitempty"`
	Seniority *string    `gorm:"column:seniority" json:"seniority,omitempty"`
	ManagerID *int       `gorm:"column:manager_id" json:"manager_id,omitempty"`
	MentorID  *int       `gorm:"column:mentor_id" json:"mentor_id,omitempty"`
	IsActive  bool       `gorm:"column:is_active" json:"is_active"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role    Role  `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Manager *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Mentor  *User `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// FullName joins first and last name for display and prompts.
func (u *User) FullName() string {
	if u.UserLname == "" {
		return u.UserFname
	}
	return u.UserFname + " " + u.UserLname
}
