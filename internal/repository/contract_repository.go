package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrContractVoided 合同已作废
var ErrContractVoided = errors.New("contract already voided")

// ContractRepository 合同仓储接口
// 合同落库后正文不可修改,仓储不提供通用的 Save/Update
type ContractRepository interface {
	Create(contract *model.ContractModel, year int, finalize func(number string) error) error
	FindByID(officeID, id string) (*model.ContractModel, error)
	List(filter *ContractFilter) ([]*model.ContractModel, int64, error)
	Void(officeID, id, reason, voidedBy string, at time.Time) (*model.ContractModel, error)
	SetArchiveKey(id, key string) error
}

// ContractFilter 合同查询过滤器
type ContractFilter struct {
	OfficeID   string
	Status     string
	TemplateID string
	Search     string // 按合同编号匹配
	Offset     int
	Limit      int
}

// contractRepository 合同仓储实现
type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository 创建合同仓储
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

// FormatContractNumber 合同编号格式: <年份>-<六位序号>
func FormatContractNumber(year, seq int) string {
	return fmt.Sprintf("%d-%06d", year, seq)
}

// Create 在同一事务中分配编号并写入合同
// finalize 拿到编号后负责替换正文中的占位文本并计算哈希,返回错误时整个事务回滚。
func (r *contractRepository) Create(contract *model.ContractModel, year int, finalize func(number string) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, contract.OfficeID, year)
		if err != nil {
			return fmt.Errorf("failed to allocate contract number: %w", err)
		}
		number := FormatContractNumber(year, seq)
		contract.ContractNumber = number
		if finalize != nil {
			if err := finalize(number); err != nil {
				return err
			}
		}
		if err := contract.Validate(); err != nil {
			return err
		}
		return tx.Create(contract).Error
	})
}

// nextSequence 递增并返回公证处当年的序号
func nextSequence(tx *gorm.DB, officeID string, year int) (int, error) {
	now := time.Now()
	seq := model.ContractSequenceModel{OfficeID: officeID, Year: year, Value: 0, UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, err
	}
	result := tx.Model(&model.ContractSequenceModel{}).
		Where("office_id = ? AND year = ?", officeID, year).
		Updates(map[string]interface{}{
			"value":      gorm.Expr("value + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if err := tx.Where("office_id = ? AND year = ?", officeID, year).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// FindByID 根据 ID 查找合同
func (r *contractRepository) FindByID(officeID, id string) (*model.ContractModel, error) {
	var contract model.ContractModel
	if err := r.db.Where("id = ? AND office_id = ?", id, officeID).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// List 分页查询合同
func (r *contractRepository) List(filter *ContractFilter) ([]*model.ContractModel, int64, error) {
	query := r.db.Model(&model.ContractModel{}).Where("office_id = ?", filter.OfficeID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TemplateID != "" {
		query = query.Where("template_id = ?", filter.TemplateID)
	}
	if filter.Search != "" {
		query = query.Where("contract_number LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var contracts []*model.ContractModel
	if err := query.Find(&contracts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find contracts: %w", err)
	}
	return contracts, total, nil
}

// Void 作废合同,只修改状态相关的列
func (r *contractRepository) Void(officeID, id, reason, voidedBy string, at time.Time) (*model.ContractModel, error) {
	var contract model.ContractModel
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND office_id = ?", id, officeID).First(&contract).Error; err != nil {
			return err
		}
		if contract.IsVoid() {
			return ErrContractVoided
		}
		updates := map[string]interface{}{
			"status":      model.ContractStatusVoid,
			"void_reason": reason,
			"voided_by":   voidedBy,
			"voided_at":   at,
			"updated_at":  at,
		}
		if err := tx.Model(&model.ContractModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		contract.Status = model.ContractStatusVoid
		contract.VoidReason = reason
		contract.VoidedBy = voidedBy
		contract.VoidedAt = &at
		contract.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// SetArchiveKey 记录归档对象名
func (r *contractRepository) SetArchiveKey(id, key string) error {
	return r.db.Model(&model.ContractModel{}).Where("id = ?", id).Update("archive_key", key).Error
}
