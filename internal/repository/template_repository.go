package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/gorm"
)

// TemplateRepository 模板仓储接口
// 所有查询都按公证处隔离
type TemplateRepository interface {
	Create(template *model.TemplateModel, fields []model.TemplateFieldModel) error
	FindByID(officeID, id string) (*model.TemplateModel, error)
	FindWithFields(officeID, id string) (*model.TemplateModel, error)
	List(filter *TemplateFilter) ([]*model.TemplateModel, int64, error)
	Update(template *model.TemplateModel) error
	UpdateWithFields(template *model.TemplateModel, fields []model.TemplateFieldModel) error
	ReplaceFields(officeID, templateID string, fields []model.TemplateFieldModel) error
	Delete(officeID, id string) error
}

// TemplateFilter 模板列表查询过滤器
type TemplateFilter struct {
	OfficeID string
	Search   string
	Category string
	Status   string
	SortBy   string
	Order    string // asc/desc
	Offset   int
	Limit    int
}

// templateRepository 模板仓储实现
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓储
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create 在同一事务中保存模板和字段
func (r *templateRepository) Create(template *model.TemplateModel, fields []model.TemplateFieldModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Fields").Create(template).Error; err != nil {
			return err
		}
		return insertFields(tx, fields)
	})
}

// FindByID 根据 ID 查找模板（不含字段）
func (r *templateRepository) FindByID(officeID, id string) (*model.TemplateModel, error) {
	var template model.TemplateModel
	if err := r.db.Where("id = ? AND office_id = ?", id, officeID).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// FindWithFields 在一个读事务中读取模板正文和字段,保证两者来自同一版本
func (r *templateRepository) FindWithFields(officeID, id string) (*model.TemplateModel, error) {
	var template model.TemplateModel
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND office_id = ?", id, officeID).First(&template).Error; err != nil {
			return err
		}
		return tx.Where("template_id = ?", id).
			Order("sort_order ASC").
			Order("created_at ASC").
			Find(&template.Fields).Error
	}, snapshotReadOptions(r.db.Dialector.Name())...)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// snapshotReadOptions 快照读的事务选项
// postgres 默认 READ COMMITTED,同一事务内的两次查询可能看到不同的提交,需要提升到 REPEATABLE READ;
// sqlite 写入串行,默认事务已经满足。
func snapshotReadOptions(dialect string) []*sql.TxOptions {
	if dialect == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	}
	return nil
}

// List 分页查询模板
func (r *templateRepository) List(filter *TemplateFilter) ([]*model.TemplateModel, int64, error) {
	query := r.db.Model(&model.TemplateModel{}).Where("office_id = ?", filter.OfficeID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	// 排序字段由调用方校验
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.Order)
	if order != "ASC" {
		order = "DESC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var templates []*model.TemplateModel
	if err := query.Find(&templates).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find templates: %w", err)
	}
	return templates, total, nil
}

// Update 只更新模板本身的列
func (r *templateRepository) Update(template *model.TemplateModel) error {
	return r.db.Omit("Fields").Save(template).Error
}

// UpdateWithFields 正文和字段集合在同一事务中更新
func (r *templateRepository) UpdateWithFields(template *model.TemplateModel, fields []model.TemplateFieldModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Fields").Save(template).Error; err != nil {
			return err
		}
		return replaceFields(tx, template.ID, fields)
	})
}

// ReplaceFields 整体替换字段集合,失败时保留原有字段
func (r *templateRepository) ReplaceFields(officeID, templateID string, fields []model.TemplateFieldModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.TemplateModel{}).
			Where("id = ? AND office_id = ?", templateID, officeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return replaceFields(tx, templateID, fields)
	})
}

// Delete 删除模板及其字段
func (r *templateRepository) Delete(officeID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND office_id = ?", id, officeID).Delete(&model.TemplateModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("template_id = ?", id).Delete(&model.TemplateFieldModel{}).Error
	})
}

func replaceFields(tx *gorm.DB, templateID string, fields []model.TemplateFieldModel) error {
	if err := tx.Where("template_id = ?", templateID).Delete(&model.TemplateFieldModel{}).Error; err != nil {
		return err
	}
	return insertFields(tx, fields)
}

func insertFields(tx *gorm.DB, fields []model.TemplateFieldModel) error {
	if len(fields) == 0 {
		return nil
	}
	return tx.Create(&fields).Error
}
