package service

import (
	"errors"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
)

// ── 选课列表错误 ──

var (
	ErrUserCourseLimit     = errors.New("已达到选课数量上限")
	ErrDuplicateEnrollment = errors.New("已选过该课程")
)

// enrollmentList 用户已选课程快照的只读视图
type enrollmentList []model.Enrollment

// Contains 是否已选该课程代码
func (l enrollmentList) Contains(code string) bool {
	_, ok := l.Find(code)
	return ok
}

// Find 按课程代码查找快照
func (l enrollmentList) Find(code string) (*model.Enrollment, bool) {
	for i := range l {
		if l[i].Code == code {
			return &l[i], true
		}
	}
	return nil, false
}

// CheckCanAdd 先校验数量上限，再校验重复
func (l enrollmentList) CheckCanAdd(code string) error {
	if len(l) >= model.MaxCoursesPerUser {
		return ErrUserCourseLimit
	}
	if l.Contains(code) {
		return ErrDuplicateEnrollment
	}
	return nil
}

// Codes 已选课程代码
func (l enrollmentList) Codes() []string {
	codes := make([]string, 0, len(l))
	for i := range l {
		codes = append(codes, l[i].Code)
	}
	return codes
}
