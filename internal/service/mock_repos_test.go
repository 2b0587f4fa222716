package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
	pkgerrors "github.com/rgabuco/webapp-sodv2201-final/pkg/errors"
)

// mockRepos 基于 map 的内存仓储集合，BeginTx 返回 nil 事务
type mockRepos struct {
	users       *mockUserRepo
	programs    *mockProgramRepo
	courses     *mockCourseRepo
	enrollments *mockEnrollmentRepo
	events      *mockEventRepo
	messages    *mockSupportMessageRepo
}

func newMockRepos() *mockRepos {
	courses := &mockCourseRepo{courses: make(map[string]*model.CourseOffering)}
	enrollments := &mockEnrollmentRepo{rows: make(map[string]*model.Enrollment), courses: courses}
	return &mockRepos{
		users:       &mockUserRepo{users: make(map[string]*model.User), enrollments: enrollments, nextStudentID: model.StudentIDStart},
		programs:    &mockProgramRepo{programs: make(map[string]*model.Program), courses: courses},
		courses:     courses,
		enrollments: enrollments,
		events:      &mockEventRepo{events: make(map[string]*model.Event)},
		messages:    &mockSupportMessageRepo{messages: make(map[string]*model.SupportMessage)},
	}
}

func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:           m.users,
		Program:        m.programs,
		Course:         m.courses,
		Enrollment:     m.enrollments,
		Event:          m.events,
		SupportMessage: m.messages,
	}
}

var mockSeq int

func mockID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%d", prefix, mockSeq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users         map[string]*model.User
	enrollments   *mockEnrollmentRepo
	nextStudentID int64
	err           error
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = mockID("user")
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.Courses, _ = m.enrollments.ListByUser(ctx, id)
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filters != nil && filters.Keyword != "" &&
			!strings.Contains(u.Username, filters.Keyword) && !strings.Contains(u.Email, filters.Keyword) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentID < all[j].StudentID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListStudents(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if !u.IsAdmin {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *mockUserRepo) CountStudents(ctx context.Context) (int64, error) {
	list, _ := m.ListStudents(ctx)
	return int64(len(list)), nil
}

func (m *mockUserRepo) IncrementCourseCount(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok || u.CourseCount >= model.MaxCoursesPerUser {
		return pkgerrors.ErrConditionNotMet
	}
	u.CourseCount++
	return nil
}

func (m *mockUserRepo) DecrementCourseCount(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok || u.CourseCount <= 0 {
		return pkgerrors.ErrConditionNotMet
	}
	u.CourseCount--
	return nil
}

func (m *mockUserRepo) ReconcileCourseCounts(ctx context.Context) (int64, error) {
	var fixed int64
	for id, u := range m.users {
		list, _ := m.enrollments.ListByUser(ctx, id)
		if u.CourseCount != len(list) {
			u.CourseCount = len(list)
			fixed++
		}
	}
	return fixed, nil
}

func (m *mockUserRepo) NextStudentID(_ context.Context) (int64, error) {
	m.nextStudentID++
	return m.nextStudentID, nil
}

// ── Mock ProgramRepository ──

type mockProgramRepo struct {
	programs map[string]*model.Program
	courses  *mockCourseRepo
}

func (m *mockProgramRepo) withCourses(p *model.Program) *model.Program {
	p.Courses, _ = m.courses.List(context.Background(), []string{p.ID})
	return p
}

func (m *mockProgramRepo) Create(ctx context.Context, program *model.Program) error {
	for _, p := range m.programs {
		if p.Code == program.Code || p.Name == program.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if program.ID == "" {
		program.ID = mockID("program")
	}
	for i := range program.Courses {
		program.Courses[i].ProgramID = program.ID
		c := program.Courses[i]
		if err := m.courses.Create(ctx, &c); err != nil {
			return err
		}
		program.Courses[i].ID = c.ID
	}
	stored := *program
	stored.Courses = nil
	m.programs[program.ID] = &stored
	return nil
}

func (m *mockProgramRepo) GetByID(_ context.Context, id string) (*model.Program, error) {
	p, ok := m.programs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withCourses(p), nil
}

func (m *mockProgramRepo) GetByCode(_ context.Context, code string) (*model.Program, error) {
	for _, p := range m.programs {
		if p.Code == code {
			return m.withCourses(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) GetByName(_ context.Context, name string) (*model.Program, error) {
	for _, p := range m.programs {
		if p.Name == name {
			return m.withCourses(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) List(_ context.Context) ([]model.Program, error) {
	var result []model.Program
	for _, p := range m.programs {
		result = append(result, *m.withCourses(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockProgramRepo) ListByCodes(ctx context.Context, codes []string) ([]model.Program, error) {
	var result []model.Program
	for _, code := range codes {
		if p, err := m.GetByCode(ctx, code); err == nil {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockProgramRepo) Update(_ context.Context, program *model.Program) error {
	stored := *program
	stored.Courses = nil
	m.programs[program.ID] = &stored
	return nil
}

func (m *mockProgramRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.programs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for cid, c := range m.courses.courses {
		if c.ProgramID == id {
			delete(m.courses.courses, cid)
		}
	}
	delete(m.programs, id)
	return nil
}

func (m *mockProgramRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.programs)), nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.CourseOffering
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.CourseOffering) error {
	for _, c := range m.courses {
		if c.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if course.ID == "" {
		course.ID = mockID("course")
	}
	if course.Version == 0 {
		course.Version = 1
	}
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.CourseOffering, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.CourseOffering, error) {
	for _, c := range m.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, programIDs []string) ([]model.CourseOffering, error) {
	var result []model.CourseOffering
	for _, c := range m.courses {
		if len(programIDs) > 0 && !containsString(programIDs, c.ProgramID) {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.CourseOffering) error {
	c, ok := m.courses[course.ID]
	if !ok || c.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.courses)), nil
}

func (m *mockCourseRepo) DecrementSeat(_ context.Context, id string) error {
	c, ok := m.courses[id]
	if !ok || c.SeatsAvailable <= 0 {
		return pkgerrors.ErrConditionNotMet
	}
	c.SeatsAvailable--
	c.Version++
	return nil
}

func (m *mockCourseRepo) IncrementSeat(_ context.Context, id string) (bool, error) {
	c, ok := m.courses[id]
	if !ok || c.SeatsAvailable >= c.ClassSize {
		return false, nil
	}
	c.SeatsAvailable++
	c.Version++
	return true, nil
}

func (m *mockCourseRepo) ListOverbooked(_ context.Context) ([]repository.CourseSeatUsage, error) {
	return nil, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	rows    map[string]*model.Enrollment // key: userID|code
	courses *mockCourseRepo
}

func enrollmentKey(userID, code string) string { return userID + "|" + code }

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	key := enrollmentKey(e.UserID, e.Code)
	if _, ok := m.rows[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if e.ID == "" {
		e.ID = mockID("enrollment")
	}
	e.CreatedAt = time.Now()
	stored := *e
	m.rows[key] = &stored
	return nil
}

func (m *mockEnrollmentRepo) ListByUser(_ context.Context, userID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.rows {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockEnrollmentRepo) GetByUserAndCode(_ context.Context, userID, code string) (*model.Enrollment, error) {
	e, ok := m.rows[enrollmentKey(userID, code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEnrollmentRepo) DeleteByUserAndCode(_ context.Context, userID, code string) error {
	key := enrollmentKey(userID, code)
	if _, ok := m.rows[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, key)
	return nil
}

func (m *mockEnrollmentRepo) DeleteByUser(_ context.Context, userID string) error {
	for key, e := range m.rows {
		if e.UserID == userID {
			delete(m.rows, key)
		}
	}
	return nil
}

func (m *mockEnrollmentRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for _, e := range m.rows {
		if e.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) CountByProgram(_ context.Context, programID string) (int64, error) {
	var n int64
	for _, e := range m.rows {
		if c, ok := m.courses.courses[e.CourseID]; ok && c.ProgramID == programID {
			n++
		}
	}
	return n, nil
}

func (m *mockEnrollmentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	events map[string]*model.Event
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = mockID("event")
	}
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventRepo) List(_ context.Context, from *time.Time) ([]model.Event, error) {
	var result []model.Event
	for _, e := range m.events {
		if from != nil && e.EventDate.Before(*from) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EventDate.Before(result[j].EventDate) })
	return result, nil
}

func (m *mockEventRepo) ListBetween(_ context.Context, start, end time.Time) ([]model.Event, error) {
	var result []model.Event
	for _, e := range m.events {
		if e.EventDate.Before(start) || e.EventDate.After(end) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EventDate.Before(result[j].EventDate) })
	return result, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.events, id)
	return nil
}

// ── Mock SupportMessageRepository ──

type mockSupportMessageRepo struct {
	messages map[string]*model.SupportMessage
}

func (m *mockSupportMessageRepo) Create(_ context.Context, msg *model.SupportMessage) error {
	if msg.ID == "" {
		msg.ID = mockID("msg")
	}
	msg.CreatedAt = time.Now()
	stored := *msg
	m.messages[msg.ID] = &stored
	return nil
}

func (m *mockSupportMessageRepo) GetByID(_ context.Context, id string) (*model.SupportMessage, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *mockSupportMessageRepo) List(_ context.Context, unreadOnly bool, offset, limit int) ([]model.SupportMessage, int64, error) {
	var all []model.SupportMessage
	for _, msg := range m.messages {
		if unreadOnly && msg.IsRead {
			continue
		}
		all = append(all, *msg)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockSupportMessageRepo) SetRead(_ context.Context, id string, isRead bool) error {
	msg, ok := m.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.IsRead = isRead
	return nil
}

func (m *mockSupportMessageRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.messages[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.messages, id)
	return nil
}

// ── Mock 外部依赖 ──

type mockMailer struct {
	sent chan string
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan string, 8)}
}

func (m *mockMailer) Send(_ context.Context, to, _, _ string) error {
	m.sent <- to
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.tokens[jti] = ttl
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
