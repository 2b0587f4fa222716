package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment 选课快照表 对应 enrollments
// 保存选课时刻课程描述字段的冗余副本，CourseID 为稳定引用，Code 仅用于展示与按课程代码查找
type Enrollment struct {
	ID            string    `gorm:"type:uuid;primaryKey"                                                                       json:"id"`
	UserID        string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_user_code;uniqueIndex:uq_enrollments_user_course" json:"user_id"`
	CourseID      string    `gorm:"type:uuid;not null;uniqueIndex:uq_enrollments_user_course;index:idx_enrollments_course"        json:"course_id"`
	Code          string    `gorm:"type:varchar(11);not null;uniqueIndex:uq_enrollments_user_code"                              json:"code"`
	Name          string    `gorm:"type:varchar(100);not null"                                                                 json:"name"`
	Description   string    `gorm:"type:varchar(1000);not null"                                                                json:"description"`
	Credits       int       `gorm:"not null"                                                                                   json:"credits"`
	Prerequisites string    `gorm:"type:varchar(100);not null;default:''"                                                      json:"prerequisites"`
	Term          string    `gorm:"type:varchar(10);not null"                                                                  json:"term"`
	StartDate     time.Time `gorm:"type:date;not null"                                                                         json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null"                                                                         json:"end_date"`
	Time          string    `gorm:"type:varchar(50);not null;default:''"                                                       json:"time"`
	Days          string    `gorm:"type:varchar(50);not null;default:''"                                                       json:"days"`
	Campus        string    `gorm:"type:varchar(100);not null;default:''"                                                      json:"campus"`
	DeliveryMode  string    `gorm:"type:varchar(30);not null"                                                                  json:"delivery_mode"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime"                                                                    json:"created_at"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// BeforeCreate 生成主键
func (e *Enrollment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Sequence 单调递增计数器表 对应 sequences
type Sequence struct {
	Name  string `gorm:"type:varchar(50);primaryKey" json:"name"`
	Value int64  `gorm:"not null"                    json:"value"`
}

// TableName 指定表名
func (Sequence) TableName() string { return "sequences" }

// StudentIDSequence 学号计数器名称
const StudentIDSequence = "student_id"

// StudentIDStart 学号计数器初始值（首个学号为该值 + 1）
const StudentIDStart int64 = 100000
