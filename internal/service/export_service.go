package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgabuco/webapp-sodv2201-final/config"
	"github.com/rgabuco/webapp-sodv2201-final/internal/model"
	"github.com/rgabuco/webapp-sodv2201-final/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	scheduleTimeLayout = "3:04 PM"
	icsUntilLayout     = "20060102T150405Z"
	calendarProductID  = "-//Student Portal//Course Schedule//EN"
)

// ExportService 导出业务接口
//
// 导出内容以内存 buffer 返回，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportStudents 导出全部学生及其选课数量为 Excel (.xlsx)
	ExportStudents(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportUserCalendar 导出用户已选课程的每周课表 (.ics)
	// 上课时间或星期无法解析的课程（如异步网课）不出现在日历中
	ExportUserCalendar(ctx context.Context, caller Caller, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	loc := time.UTC
	if cfg != nil && cfg.Database.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Database.Timezone); err == nil {
			loc = l
		} else {
			logger.Warn("时区无效，课表导出使用 UTC", zap.String("timezone", cfg.Database.Timezone), zap.Error(err))
		}
	}
	return &exportService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── ExportStudents ──────────────────────

// 输出格式：
//   - Sheet "Students"，首行为表头
//   - 每名学生一行，按学号升序

func (s *exportService) ExportStudents(ctx context.Context) (*bytes.Buffer, string, error) {
	students, err := s.repo.User.ListStudents(ctx)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Students"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student ID", "Name", "Username", "Email", "Phone", "Program", "Department", "Courses"}
	widths := []float64{12, 24, 18, 30, 16, 28, 24, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	for i := range students {
		u := &students[i]
		row := i + 2
		values := []interface{}{
			u.StudentID, u.FullName(), u.Username, u.Email, u.Phone, u.Program, u.Department, u.CourseCount,
		}
		for j, v := range values {
			f.SetCellValue(sheetName, cell(colName(j), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("students_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

// ────────────────────── ExportUserCalendar ──────────────────────

// 每门课程生成一个按周重复的 VEVENT：
//   - DTSTART 为开课日起第一个上课日的上课时间
//   - RRULE FREQ=WEEKLY;BYDAY=...;UNTIL=结课日

func (s *exportService) ExportUserCalendar(ctx context.Context, caller Caller, userID string) (*bytes.Buffer, string, error) {
	if !caller.CanAccessUser(userID) {
		return nil, "", ErrNoPermission
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	stamp := s.now().UTC()
	for i := range user.Courses {
		e := &user.Courses[i]
		slot, err := parseWeeklySlot(e, s.loc)
		if err != nil {
			s.logger.Debug("课程时间无法解析，跳过",
				zap.String("code", e.Code),
				zap.String("time", e.Time),
				zap.String("days", e.Days),
				zap.Error(err),
			)
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@student-portal", user.ID, e.Code))
		event.SetDtStampTime(stamp)
		event.SetStartAt(slot.start)
		event.SetEndAt(slot.end)
		event.SetSummary(fmt.Sprintf("%s %s", e.Code, e.Name))
		if e.Campus != "" {
			event.SetLocation(e.Campus)
		}
		event.SetDescription(fmt.Sprintf("%s, %s", e.DeliveryMode, e.Term))
		event.SetProperty(ics.ComponentPropertyRrule, slot.rrule())
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%d.ics", user.StudentID)
	return buf, filename, nil
}

// ── 辅助函数 ──

var weekdayCodes = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var icsDayNames = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

type weeklySlot struct {
	start time.Time
	end   time.Time
	days  []time.Weekday
	until time.Time
}

func (w weeklySlot) rrule() string {
	byDay := make([]string, 0, len(w.days))
	for _, d := range w.days {
		byDay = append(byDay, icsDayNames[d])
	}
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		strings.Join(byDay, ","), w.until.UTC().Format(icsUntilLayout))
}

// parseWeeklySlot 解析 "8:00 AM - 10:00 AM" 与 "Monday, Wednesday"
func parseWeeklySlot(e *model.Enrollment, loc *time.Location) (weeklySlot, error) {
	var slot weeklySlot

	parts := strings.Split(e.Time, "-")
	if len(parts) != 2 {
		return slot, fmt.Errorf("上课时间格式错误: %q", e.Time)
	}
	from, err := time.Parse(scheduleTimeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return slot, err
	}
	to, err := time.Parse(scheduleTimeLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return slot, err
	}
	if !from.Before(to) {
		return slot, fmt.Errorf("上课时间区间无效: %q", e.Time)
	}

	seen := make(map[time.Weekday]bool)
	for _, name := range strings.Split(e.Days, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		d, ok := weekdayCodes[name]
		if !ok {
			return slot, fmt.Errorf("无法识别的星期: %q", name)
		}
		if !seen[d] {
			seen[d] = true
			slot.days = append(slot.days, d)
		}
	}
	if len(slot.days) == 0 {
		return slot, fmt.Errorf("未指定上课星期")
	}

	// 开课日起第一个上课日
	first := time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < 7 && !seen[first.Weekday()]; i++ {
		first = first.AddDate(0, 0, 1)
	}

	slot.start = time.Date(first.Year(), first.Month(), first.Day(), from.Hour(), from.Minute(), 0, 0, loc)
	slot.end = time.Date(first.Year(), first.Month(), first.Day(), to.Hour(), to.Minute(), 0, 0, loc)
	slot.until = time.Date(e.EndDate.Year(), e.EndDate.Month(), e.EndDate.Day(), 23, 59, 59, 0, loc)
	return slot, nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
