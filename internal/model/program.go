package model

import (
	"time"

	"gorm.io/gorm"
)

// Program 学术项目表 对应 programs，拥有其下全部课程
type Program struct {
	ID          string    `gorm:"type:uuid;primaryKey"                        json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_programs_name" json:"name"`
	Code        string    `gorm:"type:varchar(11);not null;uniqueIndex:uq_programs_code"  json:"code"`
	Description string    `gorm:"type:text;not null;default:''"               json:"description"`
	Term        string    `gorm:"type:varchar(10);not null"                   json:"term"`
	StartDate   time.Time `gorm:"type:date;not null"                          json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null"                          json:"end_date"`
	Fees        string    `gorm:"type:varchar(100);not null;default:''"       json:"fees"`
	Category    string    `gorm:"type:varchar(20);not null"                   json:"category"`
	BaseModel

	// 关联
	Courses []CourseOffering `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// TableName 指定表名
func (Program) TableName() string { return "programs" }

// BeforeCreate 生成主键
func (p *Program) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// CourseOffering 课程开班表 对应 course_offerings
// 不变量：0 <= SeatsAvailable <= ClassSize；Code 全目录唯一
type CourseOffering struct {
	ID             string    `gorm:"type:uuid;primaryKey"                                    json:"id"`
	ProgramID      string    `gorm:"type:uuid;not null;index:idx_course_offerings_program"   json:"program_id"`
	Code           string    `gorm:"type:varchar(11);not null;uniqueIndex:uq_course_offerings_code" json:"code"`
	Name           string    `gorm:"type:varchar(100);not null"                              json:"name"`
	Description    string    `gorm:"type:varchar(1000);not null"                             json:"description"`
	Credits        int       `gorm:"not null;check:chk_course_credits,credits BETWEEN 1 AND 10" json:"credits"`
	Prerequisites  string    `gorm:"type:varchar(100);not null;default:''"                   json:"prerequisites"`
	Term           string    `gorm:"type:varchar(10);not null"                               json:"term"`
	StartDate      time.Time `gorm:"type:date;not null"                                      json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                                      json:"end_date"`
	Time           string    `gorm:"type:varchar(50);not null;default:''"                    json:"time"`
	Days           string    `gorm:"type:varchar(50);not null;default:''"                    json:"days"`
	Campus         string    `gorm:"type:varchar(100);not null;default:''"                   json:"campus"`
	DeliveryMode   string    `gorm:"type:varchar(30);not null"                               json:"delivery_mode"`
	SeatsAvailable int       `gorm:"not null;check:chk_course_seats,seats_available BETWEEN 0 AND class_size" json:"seats_available"`
	ClassSize      int       `gorm:"not null;check:chk_course_class_size,class_size BETWEEN 10 AND 50"        json:"class_size"`
	Version        int       `gorm:"not null;default:1"                                      json:"version"`
	BaseModel
}

// TableName 指定表名
func (CourseOffering) TableName() string { return "course_offerings" }

// BeforeCreate 生成主键
func (c *CourseOffering) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Snapshot 生成选课时刻的课程描述副本（不含座位字段）
func (c *CourseOffering) Snapshot(userID string) *Enrollment {
	return &Enrollment{
		UserID:        userID,
		CourseID:      c.ID,
		Code:          c.Code,
		Name:          c.Name,
		Description:   c.Description,
		Credits:       c.Credits,
		Prerequisites: c.Prerequisites,
		Term:          c.Term,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		Time:          c.Time,
		Days:          c.Days,
		Campus:        c.Campus,
		DeliveryMode:  c.DeliveryMode,
	}
}
