package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/notary-gin/internal/database"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库每个连接是独立的数据库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTemplate(officeID, name string) *model.TemplateModel {
	now := time.Now()
	return &model.TemplateModel{
		ID:        uuid.New().String(),
		OfficeID:  officeID,
		CreatedBy: "user-1",
		Name:      name,
		Category:  model.CategorySale,
		Body:      "البائع {{seller_full_name}}",
		Status:    model.TemplateStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newField(templateID, key string, order int) model.TemplateFieldModel {
	return model.TemplateFieldModel{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		Label:      key,
		Key:        key,
		Type:       "text",
		Source:     "manual",
		SortOrder:  order,
		CreatedAt:  time.Now(),
	}
}

func TestTemplateRepository_CreateAndFindWithFields(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := newTemplate("office-1", "عقد بيع")
	fields := []model.TemplateFieldModel{
		newField(tpl.ID, "price", 2),
		newField(tpl.ID, "seller_name", 1),
	}
	require.NoError(t, repo.Create(tpl, fields))

	found, err := repo.FindWithFields("office-1", tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "عقد بيع", found.Name)
	require.Len(t, found.Fields, 2)
	// 按 sort_order 排序
	assert.Equal(t, "seller_name", found.Fields[0].Key)
	assert.Equal(t, "price", found.Fields[1].Key)
}

func TestTemplateRepository_OfficeIsolation(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := newTemplate("office-1", "عقد")
	require.NoError(t, repo.Create(tpl, nil))

	_, err := repo.FindByID("office-2", tpl.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindWithFields("office-2", tpl.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.Delete("office-2", tpl.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.ReplaceFields("office-2", tpl.ID, []model.TemplateFieldModel{newField(tpl.ID, "x", 0)})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTemplateRepository_ReplaceFields(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := newTemplate("office-1", "عقد")
	require.NoError(t, repo.Create(tpl, []model.TemplateFieldModel{newField(tpl.ID, "old_key", 0)}))

	err := repo.ReplaceFields("office-1", tpl.ID, []model.TemplateFieldModel{
		newField(tpl.ID, "new_a", 0),
		newField(tpl.ID, "new_b", 1),
	})
	require.NoError(t, err)

	found, err := repo.FindWithFields("office-1", tpl.ID)
	require.NoError(t, err)
	require.Len(t, found.Fields, 2)
	assert.Equal(t, "new_a", found.Fields[0].Key)
	assert.Equal(t, "new_b", found.Fields[1].Key)
}

func TestTemplateRepository_ReplaceFields_RollbackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := newTemplate("office-1", "عقد")
	require.NoError(t, repo.Create(tpl, []model.TemplateFieldModel{newField(tpl.ID, "kept", 0)}))

	// 唯一索引 (template_id, field_key) 让第二条插入失败
	err := repo.ReplaceFields("office-1", tpl.ID, []model.TemplateFieldModel{
		newField(tpl.ID, "dup", 0),
		newField(tpl.ID, "dup", 1),
	})
	require.Error(t, err)

	found, err := repo.FindWithFields("office-1", tpl.ID)
	require.NoError(t, err)
	require.Len(t, found.Fields, 1)
	assert.Equal(t, "kept", found.Fields[0].Key)
}

func TestTemplateRepository_DeleteRemovesFields(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := newTemplate("office-1", "عقد")
	require.NoError(t, repo.Create(tpl, []model.TemplateFieldModel{newField(tpl.ID, "a", 0)}))
	require.NoError(t, repo.Delete("office-1", tpl.ID))

	var count int64
	require.NoError(t, db.Model(&model.TemplateFieldModel{}).Where("template_id = ?", tpl.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTemplateRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	for _, name := range []string{"عقد بيع شقة", "عقد إيجار", "وكالة"} {
		require.NoError(t, repo.Create(newTemplate("office-1", name), nil))
	}
	rent := newTemplate("office-1", "إيجار محل")
	rent.Category = model.CategoryRent
	require.NoError(t, repo.Create(rent, nil))
	require.NoError(t, repo.Create(newTemplate("office-2", "عقد آخر"), nil))

	list, total, err := repo.List(&repository.TemplateFilter{OfficeID: "office-1", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(&repository.TemplateFilter{OfficeID: "office-1", Search: "عقد"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	list, total, err = repo.List(&repository.TemplateFilter{OfficeID: "office-1", Category: model.CategoryRent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, rent.ID, list[0].ID)
}

func newContract(officeID string) *model.ContractModel {
	now := time.Now()
	return &model.ContractModel{
		ID:           uuid.New().String(),
		OfficeID:     officeID,
		TemplateID:   uuid.New().String(),
		TemplateName: "عقد",
		DataSnapshot: datatypes.JSON(`{"values":{}}`),
		Status:       model.ContractStatusActive,
		CreatedBy:    "user-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func createContract(t *testing.T, repo repository.ContractRepository, officeID string, year int) *model.ContractModel {
	c := newContract(officeID)
	err := repo.Create(c, year, func(number string) error {
		c.ContentSnapshot = "عقد رقم " + number
		c.ContentHash = "sha256:test"
		return nil
	})
	require.NoError(t, err)
	return c
}

func TestFormatContractNumber(t *testing.T) {
	assert.Equal(t, "2026-000001", repository.FormatContractNumber(2026, 1))
	assert.Equal(t, "2026-123456", repository.FormatContractNumber(2026, 123456))
}

func TestContractRepository_NumbersPerOfficeAndYear(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)

	a1 := createContract(t, repo, "office-1", 2026)
	a2 := createContract(t, repo, "office-1", 2026)
	b1 := createContract(t, repo, "office-2", 2026)
	a3 := createContract(t, repo, "office-1", 2027)

	assert.Equal(t, "2026-000001", a1.ContractNumber)
	assert.Equal(t, "2026-000002", a2.ContractNumber)
	assert.Equal(t, "2026-000001", b1.ContractNumber)
	assert.Equal(t, "2027-000001", a3.ContractNumber)
	assert.Equal(t, "عقد رقم 2026-000002", a2.ContentSnapshot)
}

func TestContractRepository_FinalizeErrorRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)

	c := newContract("office-1")
	err := repo.Create(c, 2026, func(string) error { return assert.AnError })
	require.ErrorIs(t, err, assert.AnError)

	// 序号没有被消耗
	next := createContract(t, repo, "office-1", 2026)
	assert.Equal(t, "2026-000001", next.ContractNumber)

	var count int64
	require.NoError(t, db.Model(&model.ContractModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestContractRepository_Void(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)
	c := createContract(t, repo, "office-1", 2026)

	at := time.Now()
	voided, err := repo.Void("office-1", c.ID, "خطأ في البيانات", "user-2", at)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusVoid, voided.Status)
	assert.Equal(t, "user-2", voided.VoidedBy)

	found, err := repo.FindByID("office-1", c.ID)
	require.NoError(t, err)
	assert.True(t, found.IsVoid())
	assert.Equal(t, c.ContentSnapshot, found.ContentSnapshot)

	_, err = repo.Void("office-1", c.ID, "again", "user-2", at)
	assert.ErrorIs(t, err, repository.ErrContractVoided)

	_, err = repo.Void("office-2", c.ID, "other office", "user-3", at)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContractRepository_ListAndArchiveKey(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)
	c1 := createContract(t, repo, "office-1", 2026)
	createContract(t, repo, "office-1", 2026)
	createContract(t, repo, "office-2", 2026)

	_, err := repo.Void("office-1", c1.ID, "reason", "user-1", time.Now())
	require.NoError(t, err)

	list, total, err := repo.List(&repository.ContractFilter{OfficeID: "office-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(&repository.ContractFilter{OfficeID: "office-1", Status: model.ContractStatusVoid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	list, _, err = repo.List(&repository.ContractFilter{OfficeID: "office-1", Search: "000002"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-000002", list[0].ContractNumber)

	require.NoError(t, repo.SetArchiveKey(c1.ID, "office-1/2026/2026-000001.json"))
	found, err := repo.FindByID("office-1", c1.ID)
	require.NoError(t, err)
	assert.Equal(t, "office-1/2026/2026-000001.json", found.ArchiveKey)
}

func newClient(officeID, first, last, nationalID string) *model.ClientModel {
	now := time.Now()
	return &model.ClientModel{
		ID:         uuid.New().String(),
		OfficeID:   officeID,
		FirstName:  first,
		FatherName: "أحمد",
		LastName:   last,
		NationalID: nationalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestClientRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewClientRepository(db)

	c1 := newClient("office-1", "محمد", "بن يطو", "201766707")
	c2 := newClient("office-1", "فطيمة", "بختي", "301122334")
	c3 := newClient("office-2", "علي", "سعدي", "201766707")
	for _, c := range []*model.ClientModel{c1, c2, c3} {
		require.NoError(t, repo.Save(c))
	}

	found, err := repo.FindByID("office-1", c1.ID)
	require.NoError(t, err)
	// BeforeSave 补全全名
	assert.Equal(t, "محمد أحمد بن يطو", found.FullName)

	byID, err := repo.FindByIDs("office-1", []string{c1.ID, c2.ID, c3.ID})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.NotContains(t, byID, c3.ID)

	list, total, err := repo.List(&repository.ClientFilter{OfficeID: "office-1", Search: "بختي"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c2.ID, list[0].ID)

	taken, err := repo.NationalIDTaken("office-1", "201766707", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.NationalIDTaken("office-1", "201766707", c1.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, repo.Delete("office-1", c1.ID))
	assert.ErrorIs(t, repo.Delete("office-1", c1.ID), gorm.ErrRecordNotFound)
}

func TestAuditLogRepository_FindByOffice(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAuditLogRepository(db)

	for i, office := range []string{"office-1", "office-1", "office-2"} {
		require.NoError(t, repo.Save(&model.AuditLogModel{
			ID:           uuid.New().String(),
			OfficeID:     office,
			UserID:       "user-1",
			Action:       "create",
			ResourceType: "template",
			ResourceID:   uuid.New().String(),
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	logs, total, err := repo.FindByOffice(&repository.AuditLogFilter{OfficeID: "office-1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}
