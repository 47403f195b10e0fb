package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_Create(t *testing.T) {
	env := setupTestEnv(t)

	tpl := createActiveTemplate(t, env)
	assert.Equal(t, testOfficeID, tpl.OfficeID)
	assert.Equal(t, testUserID, tpl.CreatedBy)
	assert.Len(t, tpl.Fields, 4)

	loaded, err := env.templateSvc.Get(testContext(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, saleBody, loaded.Body)
	require.Len(t, loaded.Fields, 4)
	assert.Equal(t, "seller_name", loaded.Fields[0].Key)
}

func TestTemplateService_CreateDefaultsToDraft(t *testing.T) {
	env := setupTestEnv(t)
	tpl, err := env.templateSvc.Create(testContext(), &service.CreateTemplateRequest{
		Name:     "وكالة",
		Category: model.CategoryPowerOfAttorney,
		Body:     "أنا {{current_user_name}}",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TemplateStatusDraft, tpl.Status)
}

func TestTemplateService_CreateRejectsInvalidDefinitions(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.templateSvc.Create(testContext(), &service.CreateTemplateRequest{
		Name:     "عقد",
		Category: model.CategorySale,
		Body:     "{{a}}",
		Fields: []engine.FieldSpec{
			{Label: "A", Key: "a", Type: "text", Source: "manual"},
			{Label: "A2", Key: "a", Type: "text", Source: "manual"},
			{Label: "B", Key: "Bad-Key", Type: "text", Source: "manual"},
			{Label: "C", Key: "c", Type: "select", Source: "manual"},
			{Label: "D", Key: "d", Type: "text", Source: "client", ClientRole: "seller"},
		},
	})
	require.ErrorIs(t, err, service.ErrInvalidDefinitions)

	var defErrs engine.DefinitionErrors
	require.True(t, errors.As(err, &defErrs))
	var dup *engine.DuplicateKeyError
	var invalid *engine.InvalidKeyError
	var options *engine.MissingOptionsError
	var incomplete *engine.IncompleteFieldError
	assert.True(t, errors.As(err, &dup))
	assert.True(t, errors.As(err, &invalid))
	assert.True(t, errors.As(err, &options))
	assert.True(t, errors.As(err, &incomplete))

	list, err := env.templateSvc.List(testContext(), nil)
	require.NoError(t, err)
	assert.Zero(t, list.Pagination.Total)
}

func TestTemplateService_CreateValidation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		req  *service.CreateTemplateRequest
	}{
		{"empty name", &service.CreateTemplateRequest{Name: " ", Category: model.CategorySale, Body: "x"}},
		{"empty body", &service.CreateTemplateRequest{Name: "عقد", Category: model.CategorySale, Body: "  "}},
		{"bad category", &service.CreateTemplateRequest{Name: "عقد", Category: "loan", Body: "x"}},
		{"bad status", &service.CreateTemplateRequest{Name: "عقد", Category: model.CategorySale, Body: "x", Status: "archived"}},
		{"script in name", &service.CreateTemplateRequest{Name: "<script>x</script>", Category: model.CategorySale, Body: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.templateSvc.Create(testContext(), tt.req)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestTemplateService_RequiresIdentity(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.templateSvc.Create(context.Background(), &service.CreateTemplateRequest{
		Name: "عقد", Category: model.CategorySale, Body: "x",
	})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestTemplateService_OfficeIsolation(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	_, err := env.templateSvc.Get(otherOfficeContext(), tpl.ID)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)

	err = env.templateSvc.Delete(otherOfficeContext(), tpl.ID)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestTemplateService_Update(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	// fields 为 nil 时保留原字段
	updated, err := env.templateSvc.Update(testContext(), tpl.ID, &service.UpdateTemplateRequest{
		Name:     "عقد بيع شقة",
		Category: model.CategorySale,
		Body:     "باع {{seller_name}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "عقد بيع شقة", updated.Name)
	assert.Equal(t, model.TemplateStatusActive, updated.Status)
	assert.Len(t, updated.Fields, 4)

	// 空数组清空字段
	empty := []engine.FieldSpec{}
	updated, err = env.templateSvc.Update(testContext(), tpl.ID, &service.UpdateTemplateRequest{
		Name:     "عقد بيع شقة",
		Category: model.CategorySale,
		Body:     "نص ثابت",
		Fields:   &empty,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Fields)
}

func TestTemplateService_ReplaceFields(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	updated, err := env.templateSvc.ReplaceFields(testContext(), tpl.ID, []engine.FieldSpec{
		{Label: "الثمن", Key: "price", Type: "number", Source: "manual", Required: true},
	})
	require.NoError(t, err)
	require.Len(t, updated.Fields, 1)
	assert.Equal(t, "price", updated.Fields[0].Key)

	// 非法定义不改变现有字段
	_, err = env.templateSvc.ReplaceFields(testContext(), tpl.ID, []engine.FieldSpec{
		{Label: "x", Key: "x", Type: "text", Source: "system"},
	})
	require.ErrorIs(t, err, service.ErrInvalidDefinitions)

	loaded, err := env.templateSvc.Get(testContext(), tpl.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Fields, 1)
	assert.Equal(t, "price", loaded.Fields[0].Key)

	_, err = env.templateSvc.ReplaceFields(otherOfficeContext(), tpl.ID, nil)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

func TestTemplateService_ReplaceFieldsRejectsDuplicateKeys(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	_, err := env.templateSvc.ReplaceFields(testContext(), tpl.ID, []engine.FieldSpec{
		{Label: "الثمن", Key: "price", Type: "number", Source: "manual", Required: true},
		{Label: "الثمن بالحروف", Key: "price", Type: "text", Source: "manual"},
	})
	require.ErrorIs(t, err, service.ErrInvalidDefinitions)
	var dup *engine.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "price", dup.Key)

	// 原有字段集合不变
	loaded, err := env.templateSvc.Get(testContext(), tpl.ID)
	require.NoError(t, err)
	keys := make([]string, 0, len(loaded.Fields))
	for _, f := range loaded.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"seller_name", "buyer_name", "price", "number"}, keys)
}

func TestTemplateService_Duplicate(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	dup, err := env.templateSvc.Duplicate(testContext(), tpl.ID)
	require.NoError(t, err)
	assert.NotEqual(t, tpl.ID, dup.ID)
	assert.Equal(t, "عقد بيع عقار (نسخة)", dup.Name)
	assert.Equal(t, model.TemplateStatusDraft, dup.Status)
	assert.Equal(t, tpl.Body, dup.Body)
	require.Len(t, dup.Fields, len(tpl.Fields))
	for i := range dup.Fields {
		assert.Equal(t, tpl.Fields[i].Key, dup.Fields[i].Key)
		assert.NotEqual(t, tpl.Fields[i].ID, dup.Fields[i].ID)
		assert.Equal(t, dup.ID, dup.Fields[i].TemplateID)
	}

	// 原模板字段不受影响
	orig, err := env.templateSvc.Get(testContext(), tpl.ID)
	require.NoError(t, err)
	assert.Len(t, orig.Fields, 4)
}

func TestTemplateService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)

	require.NoError(t, env.templateSvc.Delete(testContext(), tpl.ID))
	_, err := env.templateSvc.Get(testContext(), tpl.ID)
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
	assert.ErrorIs(t, env.templateSvc.Delete(testContext(), tpl.ID), service.ErrTemplateNotFound)
}

func TestTemplateService_List(t *testing.T) {
	env := setupTestEnv(t)
	createActiveTemplate(t, env)
	_, err := env.templateSvc.Create(testContext(), &service.CreateTemplateRequest{
		Name: "عقد إيجار", Category: model.CategoryRent, Body: "x",
	})
	require.NoError(t, err)

	resp, err := env.templateSvc.List(testContext(), &service.TemplateListFilter{Status: model.TemplateStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, "عقد إيجار", resp.Data[0].Name)

	resp, err = env.templateSvc.List(testContext(), &service.TemplateListFilter{SortBy: "name", Order: "asc", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Pagination.TotalPage)
	assert.Len(t, resp.Data, 1)

	_, err = env.templateSvc.List(testContext(), &service.TemplateListFilter{SortBy: "body; DROP TABLE templates"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = env.templateSvc.List(testContext(), &service.TemplateListFilter{Order: "sideways"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = env.templateSvc.List(testContext(), &service.TemplateListFilter{Category: "loan"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestTemplateService_Lint(t *testing.T) {
	env := setupTestEnv(t)
	tpl, err := env.templateSvc.Create(testContext(), &service.CreateTemplateRequest{
		Name:     "عقد",
		Category: model.CategorySale,
		Body:     "{{price}} {{price}} {{today}} {{buyer_full_name}} {{mystery}} {{ price }}",
		Fields: []engine.FieldSpec{
			{Label: "الثمن", Key: "price", Type: "number", Source: "manual"},
			{Label: "غير مستعمل", Key: "unused", Type: "text", Source: "manual"},
		},
	})
	require.NoError(t, err)

	report, err := env.templateSvc.Lint(testContext(), tpl.ID)
	require.NoError(t, err)
	require.Len(t, report.Tokens, 4)

	assert.Equal(t, service.TokenUsage{Key: "price", Count: 2, Status: service.TokenDefined, Label: "الثمن"}, report.Tokens[0])
	assert.Equal(t, service.TokenSystem, report.Tokens[1].Status)
	assert.Equal(t, service.TokenCatalog, report.Tokens[2].Status)
	assert.Equal(t, service.TokenUnknown, report.Tokens[3].Status)
	assert.Equal(t, []string{"unused"}, report.UnusedFields)
}

func TestTemplateService_AuditTrail(t *testing.T) {
	env := setupTestEnv(t)
	tpl := createActiveTemplate(t, env)
	_, err := env.templateSvc.Duplicate(testContext(), tpl.ID)
	require.NoError(t, err)

	logs, pagination, err := env.auditLogSvc.List(testContext(), &service.AuditLogListFilter{ResourceType: service.ResourceTemplate})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pagination.Total)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{service.ActionCreate, service.ActionDuplicate}, actions)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, testOfficeID, logs[0].OfficeID)
}
