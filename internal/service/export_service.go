package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"colab/backend/internal/model"
	"colab/backend/internal/repository"
	"colab/backend/internal/timeline"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoActivities = errors.New("该课程暂无活动")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "课程日程"：每个活动一行，按结束时间升序，时间以课程时区显示
//   - Sheet "日期问题"：仅在课程存在日期校验问题时生成
type ExportService interface {
	// ExportCourse 导出课程日程为 Excel
	ExportCourse(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	zones  timeline.Zones
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, zones timeline.Zones, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, zones: zones, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportCourse — 导出课程日程为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课程名 — 课程日程（时区）
//   - 表头：类别 | 名称 | 开始 | 结束 | 天数 | 关联项目 | 状态
//   - 状态：激活 / 未激活 / 超出课程区间
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportCourse(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	// 1. 查询课程
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	loc, err := s.zones.Location(course.Timezone)
	if err != nil {
		return nil, "", ErrInvalidTimezone
	}

	// 2. 查询活动（已按结束时间排序）
	activities, err := s.repo.Activity.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程活动失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if len(activities) == 0 {
		return nil, "", ErrExportNoActivities
	}

	// 3. 项目名索引，用于显示关联项目
	projectNames := make(map[string]string)
	for _, a := range activities {
		if a.ActivityKind() == timeline.KindProject {
			projectNames[a.ActivityID()] = a.ActivityName()
		}
	}

	parent := course.Dates().Range

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课程日程"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"类别", "名称", "开始", "结束", "天数", "关联项目", "状态"}
	widths := []float64{10, 32, 22, 22, 8, 24, 14}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	warnStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 课程日程（%s）", course.Name, loc.String()))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	var issues []issueRow
	for _, a := range activities {
		r := a.DateRange()
		f.SetCellValue(sheetName, cell("A", row), a.ActivityKind().Label())
		f.SetCellValue(sheetName, cell("B", row), a.ActivityName())
		f.SetCellValue(sheetName, cell("C", row), localText(r.Start, loc))
		f.SetCellValue(sheetName, cell("D", row), localText(r.End, loc))
		if r.Complete() {
			f.SetCellValue(sheetName, cell("E", row), spanDays(r))
		}
		if l, ok := a.(timeline.Linked); ok && l.LinkedActivityID() != "" {
			name, found := projectNames[l.LinkedActivityID()]
			if !found {
				name = l.LinkedActivityID()
			}
			f.SetCellValue(sheetName, cell("F", row), name)
		}

		errs := timeline.ValidateActivityDates(a, parent)
		switch {
		case len(errs) > 0:
			f.SetCellValue(sheetName, cell("G", row), "超出课程区间")
			f.SetCellStyle(sheetName, cell("A", row), cell("G", row), warnStyle)
			for _, e := range errs {
				issues = append(issues, issueRow{activity: a, err: e})
			}
		case activityActive(a):
			f.SetCellValue(sheetName, cell("G", row), "激活")
		default:
			f.SetCellValue(sheetName, cell("G", row), "未激活")
		}
		row++
	}

	// 5. 日期问题
	if len(issues) > 0 {
		issueSheet := "日期问题"
		f.NewSheet(issueSheet)
		f.SetColWidth(issueSheet, "A", "A", 10)
		f.SetColWidth(issueSheet, "B", "B", 32)
		f.SetColWidth(issueSheet, "C", "C", 12)
		f.SetColWidth(issueSheet, "D", "D", 60)
		f.SetCellValue(issueSheet, "A1", "类别")
		f.SetCellValue(issueSheet, "B1", "名称")
		f.SetCellValue(issueSheet, "C1", "字段")
		f.SetCellValue(issueSheet, "D1", "说明")
		f.SetCellStyle(issueSheet, "A1", "D1", headerStyle)
		for i, is := range issues {
			r := i + 2
			f.SetCellValue(issueSheet, cell("A", r), is.activity.ActivityKind().Label())
			f.SetCellValue(issueSheet, cell("B", r), is.activity.ActivityName())
			f.SetCellValue(issueSheet, cell("C", r), is.err.Field)
			f.SetCellValue(issueSheet, cell("D", r), is.err.Message)
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课程日程_%s.xlsx", course.Name)
	return buf, filename, nil
}

// ── 辅助函数 ──

type issueRow struct {
	activity model.CourseActivity
	err      timeline.ValidationError
}

func activityActive(a model.CourseActivity) bool {
	switch v := a.(type) {
	case *model.Project:
		return v.Active
	case *model.Assignment:
		return v.Active
	case *model.Experience:
		return v.Active
	case *model.BingoGame:
		return v.Active
	}
	return false
}

// spanDays 区间覆盖的天数（不足一天按一天计）
func spanDays(r timeline.Range) int {
	return int(math.Ceil(r.Duration().Hours() / 24))
}

func localText(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
