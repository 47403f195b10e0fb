package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mautops/notary-gin/internal/database"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testOfficeID = "office-1"
	testUserID   = "user-1"
)

// testEnv 服务测试依赖
type testEnv struct {
	db          *gorm.DB
	clientRepo  repository.ClientRepository
	auditLogSvc service.AuditLogService
	templateSvc service.TemplateService
	contractSvc service.ContractService
	clientSvc   service.ClientService
	officeSvc   service.OfficeService
	statsSvc    service.StatisticsService
	archive     *fakeArchive
}

// setupTestEnv 创建测试数据库和服务
func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	templateRepo := repository.NewTemplateRepository(db)
	clientRepo := repository.NewClientRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)

	opts := engine.DefaultOptions()
	opts.Location = time.UTC
	archive := &fakeArchive{objects: map[string]*model.ContractModel{}}

	return &testEnv{
		db:          db,
		clientRepo:  clientRepo,
		auditLogSvc: auditLogSvc,
		templateSvc: service.NewTemplateService(templateRepo, auditLogSvc, logger),
		contractSvc: service.NewContractService(service.ContractServiceDeps{
			TemplateRepo: templateRepo,
			ContractRepo: repository.NewContractRepository(db),
			ClientRepo:   clientRepo,
			OfficeRepo:   officeRepo,
			AuditLogSvc:  auditLogSvc,
			Archive:      archive,
			Options:      opts,
			Logger:       logger,
		}),
		clientSvc: service.NewClientService(clientRepo, auditLogSvc, logger),
		officeSvc: service.NewOfficeService(officeRepo, auditLogSvc),
		statsSvc:  service.NewStatisticsService(db),
		archive:   archive,
	}
}

func testContext() context.Context {
	ctx := service.WithIdentity(context.Background(), service.Identity{
		UserID:   testUserID,
		UserName: "الموثق",
		OfficeID: testOfficeID,
	})
	return service.WithRequestMeta(ctx, "req-1", "127.0.0.1", "go-test")
}

func otherOfficeContext() context.Context {
	return service.WithIdentity(context.Background(), service.Identity{
		UserID:   "user-9",
		OfficeID: "office-9",
	})
}

// fakeArchive 内存归档
type fakeArchive struct {
	objects map[string]*model.ContractModel
	failPut bool
}

func (a *fakeArchive) Put(_ context.Context, c *model.ContractModel) (string, error) {
	if a.failPut {
		return "", context.DeadlineExceeded
	}
	key := c.OfficeID + "/" + c.ContractNumber + ".json"
	a.objects[key] = c
	return key, nil
}

func (a *fakeArchive) PresignedURL(_ context.Context, name string) (string, error) {
	return "https://archive.local/" + name + "?sig=test", nil
}

// saleFields 买卖合同的字段定义
func saleFields() []engine.FieldSpec {
	return []engine.FieldSpec{
		{Label: "اسم البائع", Key: "seller_name", Type: "text", Source: "client", ClientRole: "seller", ClientField: "full_name", Required: true, SortOrder: 1},
		{Label: "اسم المشتري", Key: "buyer_name", Type: "text", Source: "client", ClientRole: "buyer", ClientField: "full_name", SortOrder: 2},
		{Label: "الثمن", Key: "price", Type: "number", Source: "manual", Required: true, SortOrder: 3},
		{Label: "رقم العقد", Key: "number", Type: "text", Source: "system", SystemValue: "contract_number", SortOrder: 4},
	}
}

const saleBody = "عقد رقم {{number}}: باع {{seller_name}} إلى {{buyer_name}} بثمن {{price}} دج. {{office_name}}"

func createActiveTemplate(t *testing.T, env *testEnv) *model.TemplateModel {
	tpl, err := env.templateSvc.Create(testContext(), &service.CreateTemplateRequest{
		Name:     "عقد بيع عقار",
		Category: model.CategorySale,
		Body:     saleBody,
		Status:   model.TemplateStatusActive,
		Fields:   saleFields(),
	})
	require.NoError(t, err)
	return tpl
}

func createClient(t *testing.T, env *testEnv, first, last, nationalID string) *model.ClientModel {
	c, err := env.clientSvc.Create(testContext(), &service.ClientRequest{
		FirstName:  first,
		FatherName: "أحمد",
		LastName:   last,
		NationalID: nationalID,
	})
	require.NoError(t, err)
	return c
}
