package repository

import (
	"fmt"
	"strings"

	"github.com/mautops/notary-gin/internal/model"
	"gorm.io/gorm"
)

// ClientRepository 客户仓储接口
type ClientRepository interface {
	Save(client *model.ClientModel) error
	FindByID(officeID, id string) (*model.ClientModel, error)
	FindByIDs(officeID string, ids []string) (map[string]*model.ClientModel, error)
	List(filter *ClientFilter) ([]*model.ClientModel, int64, error)
	Delete(officeID, id string) error
	NationalIDTaken(officeID, nationalID, excludeID string) (bool, error)
}

// ClientFilter 客户列表查询过滤器
type ClientFilter struct {
	OfficeID      string
	Search        string
	MaritalStatus string
	SortBy        string
	Order         string
	Offset        int
	Limit         int
}

// clientRepository 客户仓储实现
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// Save 保存客户
func (r *clientRepository) Save(client *model.ClientModel) error {
	return r.db.Save(client).Error
}

// FindByID 根据 ID 查找客户
func (r *clientRepository) FindByID(officeID, id string) (*model.ClientModel, error) {
	var client model.ClientModel
	if err := r.db.Where("id = ? AND office_id = ?", id, officeID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByIDs 批量查找客户,按 ID 返回,不存在的 ID 不出现在结果中
func (r *clientRepository) FindByIDs(officeID string, ids []string) (map[string]*model.ClientModel, error) {
	result := make(map[string]*model.ClientModel, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var clients []*model.ClientModel
	if err := r.db.Where("office_id = ? AND id IN ?", officeID, ids).Find(&clients).Error; err != nil {
		return nil, err
	}
	for _, c := range clients {
		result[c.ID] = c
	}
	return result, nil
}

// List 分页查询客户,搜索匹配名字、身份证号和电话
func (r *clientRepository) List(filter *ClientFilter) ([]*model.ClientModel, int64, error) {
	query := r.db.Model(&model.ClientModel{}).Where("office_id = ?", filter.OfficeID)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR full_name LIKE ? OR national_id LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if filter.MaritalStatus != "" {
		query = query.Where("marital_status = ?", filter.MaritalStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

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

	var clients []*model.ClientModel
	if err := query.Find(&clients).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find clients: %w", err)
	}
	return clients, total, nil
}

// Delete 删除客户,已生成的合同保存的是快照,不受影响
func (r *clientRepository) Delete(officeID, id string) error {
	result := r.db.Where("id = ? AND office_id = ?", id, officeID).Delete(&model.ClientModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NationalIDTaken 同一公证处内身份证号是否已被其他客户使用
func (r *clientRepository) NationalIDTaken(officeID, nationalID, excludeID string) (bool, error) {
	query := r.db.Model(&model.ClientModel{}).Where("office_id = ? AND national_id = ?", officeID, nationalID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OfficeRepository 公证处仓储接口
type OfficeRepository interface {
	Save(office *model.OfficeModel) error
	FindByID(id string) (*model.OfficeModel, error)
}

// officeRepository 公证处仓储实现
type officeRepository struct {
	db *gorm.DB
}

// NewOfficeRepository 创建公证处仓储
func NewOfficeRepository(db *gorm.DB) OfficeRepository {
	return &officeRepository{db: db}
}

// Save 保存公证处
func (r *officeRepository) Save(office *model.OfficeModel) error {
	return r.db.Save(office).Error
}

// FindByID 根据 ID 查找公证处
func (r *officeRepository) FindByID(id string) (*model.OfficeModel, error) {
	var office model.OfficeModel
	if err := r.db.Where("id = ?", id).First(&office).Error; err != nil {
		return nil, err
	}
	return &office, nil
}
