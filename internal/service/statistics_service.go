package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/gorm"
)

// 按天统计的默认和最大窗口
const (
	defaultStatisticsDays = 30
	maxStatisticsDays     = 366
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetOfficeStatistics(ctx context.Context, days int) (*OfficeStatistics, error)
}

// StatusCount 按状态统计
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ContractsByTemplate 按模板统计合同
type ContractsByTemplate struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	Count        int64  `json:"count"`
}

// DailyCount 按日期统计
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// OfficeStatistics 当前公证处的模板和合同统计
type OfficeStatistics struct {
	TemplatesByStatus []*StatusCount         `json:"templates_by_status"`
	ContractsByStatus []*StatusCount         `json:"contracts_by_status"`
	ContractsTotal    int64                  `json:"contracts_total"`
	ByTemplate        []*ContractsByTemplate `json:"by_template"`
	ByDay             []*DailyCount          `json:"by_day"`
	Since             time.Time              `json:"since"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db, now: time.Now}
}

// GetOfficeStatistics 统计当前公证处,按天统计只覆盖最近 days 天
func (s *statisticsService) GetOfficeStatistics(ctx context.Context, days int) (*OfficeStatistics, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultStatisticsDays
	}
	if days > maxStatisticsDays {
		return nil, invalidInput("days must not exceed %d", maxStatisticsDays)
	}
	db := s.db.WithContext(ctx)

	stats := &OfficeStatistics{
		Since: s.now().AddDate(0, 0, -days).Truncate(24 * time.Hour),
	}

	if stats.TemplatesByStatus, err = countByStatus(db.Model(&model.TemplateModel{}), id.OfficeID); err != nil {
		return nil, fmt.Errorf("failed to get template statistics by status: %w", err)
	}
	if stats.ContractsByStatus, err = countByStatus(db.Model(&model.ContractModel{}), id.OfficeID); err != nil {
		return nil, fmt.Errorf("failed to get contract statistics by status: %w", err)
	}
	for _, sc := range stats.ContractsByStatus {
		stats.ContractsTotal += sc.Count
	}

	// 模板可能已删除,名称取合同快照中的模板名
	err = db.Model(&model.ContractModel{}).
		Select("template_id, MAX(template_name) as template_name, COUNT(*) as count").
		Where("office_id = ?", id.OfficeID).
		Group("template_id").
		Order("count DESC").
		Scan(&stats.ByTemplate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get contract statistics by template: %w", err)
	}

	err = db.Model(&model.ContractModel{}).
		Select("CAST(DATE(created_at) AS TEXT) as date, COUNT(*) as count").
		Where("office_id = ? AND created_at >= ?", id.OfficeID, stats.Since).
		Group("DATE(created_at)").
		Order("date DESC").
		Scan(&stats.ByDay).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get contract statistics by time: %w", err)
	}

	return stats, nil
}

func countByStatus(query *gorm.DB, officeID string) ([]*StatusCount, error) {
	var results []*StatusCount
	err := query.
		Select("status, COUNT(*) as count").
		Where("office_id = ?", officeID).
		Group("status").
		Order("status").
		Scan(&results).Error
	return results, err
}
