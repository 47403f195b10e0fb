package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/metrics"
	"github.com/mautops/notary-gin/internal/model"
	"github.com/mautops/notary-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// hashPrefix 合同内容哈希的算法前缀
const hashPrefix = "sha256:"

// maxVoidReasonLength 作废原因最大字符数
const maxVoidReasonLength = 1000

// SnapshotArchive 合同快照归档
type SnapshotArchive interface {
	Put(ctx context.Context, contract *model.ContractModel) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

// ContractService 合同服务接口
type ContractService interface {
	Preview(ctx context.Context, templateID string, req *GenerateContractRequest) (*PreviewResult, error)
	Generate(ctx context.Context, templateID string, req *GenerateContractRequest) (*GenerateResult, error)
	Get(ctx context.Context, id string) (*model.ContractModel, error)
	List(ctx context.Context, filter *ContractListFilter) (*ContractListResponse, error)
	Void(ctx context.Context, id string, reason string) (*model.ContractModel, error)
	Verify(ctx context.Context, id string) (*VerifyResult, error)
	ArchiveURL(ctx context.Context, id string) (string, error)
}

// GenerateContractRequest 生成或预览合同请求
// @Description 生成合同的请求参数
type GenerateContractRequest struct {
	Clients     map[string]string `json:"clients"`      // 角色 -> 客户 ID
	Values      map[string]string `json:"values"`       // 手工录入字段
	ConfirmGaps bool              `json:"confirm_gaps"` // 确认空白占位符后继续生成
}

// PreviewResult 预览结果,不落库
type PreviewResult struct {
	Text                string                  `json:"text"`
	Values              engine.ResolvedValueMap `json:"values"`
	Errors              []*engine.FieldError    `json:"errors"`
	Gaps                []string                `json:"gaps"`
	UnknownSystemValues []string                `json:"unknown_system_values,omitempty"`
	Blocked             bool                    `json:"blocked"`
}

// GenerateResult 生成结果
type GenerateResult struct {
	Contract *model.ContractModel `json:"contract"`
	Warnings []*engine.FieldError `json:"warnings"`
	Gaps     []string             `json:"gaps"`
}

// VerifyResult 内容完整性校验结果
type VerifyResult struct {
	ContractID     string `json:"contract_id"`
	ContractNumber string `json:"contract_number"`
	Valid          bool   `json:"valid"`
	StoredHash     string `json:"stored_hash"`
	ComputedHash   string `json:"computed_hash"`
}

// ContractListFilter 合同列表查询过滤器
type ContractListFilter struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	Status     string `form:"status"`
	TemplateID string `form:"template_id"`
	Search     string `form:"search"`
}

// ContractListResponse 合同列表响应
type ContractListResponse struct {
	Data       []*model.ContractModel
	Pagination PaginationInfo
}

// contractData 写入 data_snapshot 的内容
type contractData struct {
	Values  engine.ResolvedValueMap `json:"values"`
	Clients map[string]string       `json:"clients,omitempty"`
}

// contractService 合同服务实现
type contractService struct {
	templateRepo repository.TemplateRepository
	contractRepo repository.ContractRepository
	clientRepo   repository.ClientRepository
	officeRepo   repository.OfficeRepository
	auditLogSvc  AuditLogService
	archive      SnapshotArchive
	compiler     *engine.Compiler
	opts         engine.Options
	logger       *logrus.Logger
	now          func() time.Time
}

// ContractServiceDeps 合同服务依赖
type ContractServiceDeps struct {
	TemplateRepo repository.TemplateRepository
	ContractRepo repository.ContractRepository
	ClientRepo   repository.ClientRepository
	OfficeRepo   repository.OfficeRepository
	AuditLogSvc  AuditLogService
	// Archive 为 nil 时不归档
	Archive SnapshotArchive
	Options engine.Options
	Logger  *logrus.Logger
}

// NewContractService 创建合同服务
func NewContractService(deps ContractServiceDeps) ContractService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts := deps.Options
	if opts.ContractNumberPlaceholder == "" {
		opts.ContractNumberPlaceholder = engine.DefaultContractNumberValue
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &contractService{
		templateRepo: deps.TemplateRepo,
		contractRepo: deps.ContractRepo,
		clientRepo:   deps.ClientRepo,
		officeRepo:   deps.OfficeRepo,
		auditLogSvc:  deps.AuditLogSvc,
		archive:      deps.Archive,
		compiler:     engine.NewCompiler(opts),
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

// Preview 编译模板但不生成合同,草稿模板也可以预览
func (s *contractService) Preview(ctx context.Context, templateID string, req *GenerateContractRequest) (*PreviewResult, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	tpl, err := s.loadTemplate(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}
	rc, err := s.runtimeContext(ctx, id, req)
	if err != nil {
		return nil, err
	}
	res, err := s.compile(ctx, tpl, rc)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Text:                res.Text,
		Values:              res.Values,
		Errors:              nonNilErrors(res.Errors),
		Gaps:                nonNilStrings(res.Gaps),
		UnknownSystemValues: res.UnknownSystemValues,
		Blocked:             res.Blocked(),
	}, nil
}

// Generate 编译模板并写入不可修改的合同快照
func (s *contractService) Generate(ctx context.Context, templateID string, req *GenerateContractRequest) (*GenerateResult, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &GenerateContractRequest{}
	}
	tpl, err := s.loadTemplate(id.OfficeID, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.Status != model.TemplateStatusActive {
		return nil, ErrTemplateInactive
	}

	rc, err := s.runtimeContext(ctx, id, req)
	if err != nil {
		return nil, err
	}
	res, err := s.compile(ctx, tpl, rc)
	if err != nil {
		metrics.RecordGeneration(metrics.OutcomeFailed)
		return nil, err
	}

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"template_id": tpl.ID,
		"office_id":   id.OfficeID,
		"user_id":     id.UserID,
		"request_id":  GetRequestID(ctx),
	})

	// 必填字段失败时阻断生成
	if res.Blocked() {
		metrics.RecordGeneration(metrics.OutcomeBlocked)
		blocking := res.Blocking()
		keys := make([]string, 0, len(blocking))
		for _, fe := range blocking {
			keys = append(keys, fe.Key)
		}
		log.WithField("fields", keys).Warn("contract generation blocked by required fields")
		return nil, &GenerationError{Blocking: blocking, Warnings: res.Warnings()}
	}

	// 存在空白时需要操作人确认
	if len(res.Gaps) > 0 && !req.ConfirmGaps {
		metrics.RecordGeneration(metrics.OutcomeGapsUnconfirmed)
		return nil, &GapsError{Gaps: res.Gaps, Warnings: res.Warnings()}
	}

	gaps, err := json.Marshal(nonNilStrings(res.Gaps))
	if err != nil {
		return nil, err
	}
	now := s.now()
	contract := &model.ContractModel{
		ID:           uuid.New().String(),
		OfficeID:     id.OfficeID,
		TemplateID:   tpl.ID,
		TemplateName: tpl.Name,
		Gaps:         datatypes.JSON(gaps),
		Status:       model.ContractStatusActive,
		CreatedBy:    id.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	year := rc.Now.In(s.opts.Location).Year()
	err = s.contractRepo.Create(contract, year, func(number string) error {
		return s.finalize(contract, tpl, rc, req.Clients, number)
	})
	if err != nil {
		metrics.RecordGeneration(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to store contract: %w", err)
	}
	metrics.RecordGeneration(metrics.OutcomeGenerated)

	s.archiveSnapshot(ctx, contract, log)

	record(ctx, s.auditLogSvc, ActionGenerate, ResourceContract, contract.ID, map[string]interface{}{
		"template_id":     tpl.ID,
		"contract_number": contract.ContractNumber,
		"content_hash":    contract.ContentHash,
		"gaps":            res.Gaps,
	})
	log.WithFields(logrus.Fields{
		"contract_id":     contract.ID,
		"contract_number": contract.ContractNumber,
		"gaps":            len(res.Gaps),
	}).Info("contract generated")

	return &GenerateResult{
		Contract: contract,
		Warnings: nonNilErrors(res.Warnings()),
		Gaps:     nonNilStrings(res.Gaps),
	}, nil
}

// finalize 以真实编号作为 contract_number 重新编译,正文和数据快照来自同一次编译
// rc.Now 已固定,除编号外结果与首次编译一致;用户录入的内容不会被改写。
func (s *contractService) finalize(contract *model.ContractModel, tpl *model.TemplateModel, rc *engine.RuntimeContext, clients map[string]string, number string) error {
	defs, err := tpl.Definitions()
	if err != nil {
		return invalidDefinitions(err)
	}
	opts := s.opts
	opts.ContractNumberPlaceholder = number
	res := engine.NewCompiler(opts).Compile(tpl.Body, defs, rc)

	contract.ContentSnapshot = res.Text
	contract.ContentHash = HashContent(contract.ContentSnapshot)

	data, err := json.Marshal(contractData{Values: res.Values, Clients: clients})
	if err != nil {
		return fmt.Errorf("failed to encode data snapshot: %w", err)
	}
	contract.DataSnapshot = datatypes.JSON(data)
	return nil
}

// archiveSnapshot 归档失败只记录日志,合同已经落库
func (s *contractService) archiveSnapshot(ctx context.Context, contract *model.ContractModel, log *logrus.Entry) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.Put(ctx, contract)
	if err != nil {
		log.WithError(err).WithField("contract_id", contract.ID).Warn("failed to archive contract snapshot")
		return
	}
	if err := s.contractRepo.SetArchiveKey(contract.ID, key); err != nil {
		log.WithError(err).WithField("contract_id", contract.ID).Warn("failed to record archive key")
		return
	}
	contract.ArchiveKey = key
}

// Get 获取合同
func (s *contractService) Get(ctx context.Context, contractID string) (*model.ContractModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	contract, err := s.contractRepo.FindByID(id.OfficeID, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return contract, nil
}

// List 查询合同列表
func (s *contractService) List(ctx context.Context, filter *ContractListFilter) (*ContractListResponse, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &ContractListFilter{}
	}
	if filter.Status != "" && filter.Status != model.ContractStatusActive && filter.Status != model.ContractStatusVoid {
		return nil, invalidInput("unsupported status %q", filter.Status)
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	contracts, total, err := s.contractRepo.List(&repository.ContractFilter{
		OfficeID:   id.OfficeID,
		Status:     filter.Status,
		TemplateID: filter.TemplateID,
		Search:     filter.Search,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ContractListResponse{
		Data:       contracts,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// Void 作废合同,正文保持不变
func (s *contractService) Void(ctx context.Context, contractID string, reason string) (*model.ContractModel, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidInput("void reason is required")
	}
	if len([]rune(reason)) > maxVoidReasonLength {
		return nil, invalidInput("void reason exceeds maximum length")
	}

	contract, err := s.contractRepo.Void(id.OfficeID, contractID, reason, id.UserID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrContractNotFound
		case errors.Is(err, repository.ErrContractVoided):
			return nil, ErrContractVoided
		}
		return nil, fmt.Errorf("failed to void contract: %w", err)
	}
	metrics.RecordContractVoided()

	record(ctx, s.auditLogSvc, ActionVoid, ResourceContract, contract.ID, map[string]interface{}{
		"contract_number": contract.ContractNumber,
		"reason":          reason,
	})
	return contract, nil
}

// Verify 重新计算正文哈希并与落库时的值比较
func (s *contractService) Verify(ctx context.Context, contractID string) (*VerifyResult, error) {
	contract, err := s.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	computed := HashContent(contract.ContentSnapshot)
	return &VerifyResult{
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		Valid:          computed == contract.ContentHash,
		StoredHash:     contract.ContentHash,
		ComputedHash:   computed,
	}, nil
}

// ArchiveURL 返回归档快照的限时下载链接
func (s *contractService) ArchiveURL(ctx context.Context, contractID string) (string, error) {
	contract, err := s.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	if s.archive == nil || contract.ArchiveKey == "" {
		return "", ErrNotArchived
	}
	return s.archive.PresignedURL(ctx, contract.ArchiveKey)
}

func (s *contractService) loadTemplate(officeID, templateID string) (*model.TemplateModel, error) {
	tpl, err := s.templateRepo.FindWithFields(officeID, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// runtimeContext 加载客户和公证处,构造本次编译的上下文
func (s *contractService) runtimeContext(ctx context.Context, id Identity, req *GenerateContractRequest) (*engine.RuntimeContext, error) {
	if req == nil {
		req = &GenerateContractRequest{}
	}

	office := engine.Office{ID: id.OfficeID}
	if s.officeRepo != nil {
		om, err := s.officeRepo.FindByID(id.OfficeID)
		switch {
		case err == nil:
			office = engine.Office{
				ID:         om.ID,
				Name:       om.Name,
				Phone:      om.Phone,
				Address:    om.Address,
				NotaryName: om.NotaryName,
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.WithField("office_id", id.OfficeID).Warn("office record not found, office values will be empty")
		default:
			return nil, fmt.Errorf("failed to get office: %w", err)
		}
	}

	rc := engine.NewRuntimeContext(engine.Actor{ID: id.UserID, Name: id.UserName}, office)
	rc.Now = s.now()
	rc.WithManual(req.Values)

	if len(req.Clients) == 0 {
		return rc, nil
	}
	ids := make([]string, 0, len(req.Clients))
	for role, clientID := range req.Clients {
		if !engine.Role(role).Valid() {
			return nil, invalidInput("unsupported client role %q", role)
		}
		if clientID == "" {
			continue
		}
		ids = append(ids, clientID)
	}
	sort.Strings(ids)

	clients, err := s.clientRepo.FindByIDs(id.OfficeID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	for role, clientID := range req.Clients {
		if clientID == "" {
			continue
		}
		cm, ok := clients[clientID]
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownClient, clientID, role)
		}
		rc.WithClient(engine.Role(role), &engine.Client{ID: cm.ID, Attributes: cm.Attributes()})
	}
	return rc, nil
}

// compile 编译并记录指标和日志
func (s *contractService) compile(ctx context.Context, tpl *model.TemplateModel, rc *engine.RuntimeContext) (*engine.Result, error) {
	defs, err := tpl.Definitions()
	if err != nil {
		return nil, invalidDefinitions(err)
	}

	start := time.Now()
	res := s.compiler.Compile(tpl.Body, defs, rc)
	metrics.ObserveCompile(time.Since(start))
	metrics.RecordUnresolvedTokens(len(res.Gaps))

	for _, name := range res.UnknownSystemValues {
		metrics.RecordUnknownSystemValue(name)
		s.logger.WithFields(logrus.Fields{
			"template_id":  tpl.ID,
			"system_value": name,
			"request_id":   GetRequestID(ctx),
		}).Warn("unknown system value, echoing its name")
	}
	return res, nil
}

// HashContent 计算合同正文哈希
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hashPrefix + hex.EncodeToString(sum[:])
}

func nonNilErrors(errs []*engine.FieldError) []*engine.FieldError {
	if errs == nil {
		return []*engine.FieldError{}
	}
	return errs
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
