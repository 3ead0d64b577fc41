package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/pdf"
	"contractbuilder/internal/repository"
	"contractbuilder/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContractService is the administrator side of the contract lifecycle.
type ContractService interface {
	List(ctx context.Context, actor ActorContext, query ContractListQuery) ([]ContractResponse, int64, error)
	Get(ctx context.Context, actor ActorContext, id string) (*ContractDetailResponse, error)
	Create(ctx context.Context, actor ActorContext, req CreateContractRequest) (*ContractResponse, error)
	Update(ctx context.Context, actor ActorContext, id string, req UpdateContractRequest) (*ContractResponse, error)
	Send(ctx context.Context, actor ActorContext, id string) (*ContractResponse, error)
	Delete(ctx context.Context, actor ActorContext, id string) error
	RenderPDF(ctx context.Context, actor ActorContext, id string) (*PDFFile, error)
}

type contractService struct {
	txManager    repository.TransactionManager
	contractRepo repository.ContractRepository
	versionRepo  repository.ContractVersionRepository
	userRepo     repository.UserRepository
	templateRepo repository.TemplateRepository
	auditSink    audit.Sink
	publisher    notify.Publisher
	printer      contractPrinter
	numbers      NumberGenerator
	now          func() time.Time
}

func NewContractService(
	txManager repository.TransactionManager,
	contractRepo repository.ContractRepository,
	versionRepo repository.ContractVersionRepository,
	userRepo repository.UserRepository,
	templateRepo repository.TemplateRepository,
	settingsRepo repository.SettingsRepository,
	auditSink audit.Sink,
	publisher notify.Publisher,
	renderer pdf.Renderer,
) ContractService {
	return &contractService{
		txManager:    txManager,
		contractRepo: contractRepo,
		versionRepo:  versionRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		auditSink:    auditSink,
		publisher:    publisher,
		printer:      contractPrinter{settingsRepo: settingsRepo, renderer: renderer},
		numbers:      RandomContractNumber,
		now:          time.Now,
	}
}

func (s *contractService) List(ctx context.Context, actor ActorContext, query ContractListQuery) ([]ContractResponse, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}

	filter := repository.ContractFilter{Search: query.Search}
	filter.Page, filter.Limit = normalizePage(query.Page, query.Limit)
	if query.Status != "" {
		if !model.IsValidContractStatus(query.Status) {
			return nil, 0, apperror.Validation("validation failed", map[string]string{"status": "Status is invalid"})
		}
		filter.Status = query.Status
	}
	if query.ProviderID != "" {
		providerID, err := uuid.Parse(query.ProviderID)
		if err != nil {
			return nil, 0, apperror.Validation("validation failed", map[string]string{"provider_id": "Provider Id must be a valid UUID"})
		}
		filter.ProviderID = &providerID
	}

	contracts, total, err := s.contractRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}

	res := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		res = append(res, toContractResponse(&contracts[i], true))
	}
	return res, total, nil
}

func (s *contractService) Get(ctx context.Context, actor ActorContext, id string) (*ContractDetailResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract versions: %w", err)
	}

	res := &ContractDetailResponse{
		ContractResponse: toContractResponse(contract, true),
		Versions:         make([]VersionResponse, 0, len(versions)),
	}
	for i := range versions {
		res.Versions = append(res.Versions, toVersionResponse(&versions[i]))
	}
	return res, nil
}

func (s *contractService) Create(ctx context.Context, actor ActorContext, req CreateContractRequest) (*ContractResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	invalid := make(map[string]string)
	if err := mergeInvalid(invalid, validate(req)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		invalid["content"] = "Content is required"
	}
	startDate := parseDateField(invalid, "start_date", "Start Date", req.StartDate)
	endDate := parseDateField(invalid, "end_date", "End Date", req.EndDate)
	if len(invalid) > 0 {
		return nil, apperror.Validation("validation failed", invalid)
	}
	if err := checkTerms(startDate, endDate, req.Amount != nil && req.Amount.IsNegative()); err != nil {
		return nil, err
	}

	providerID := uuid.MustParse(req.ProviderID)
	provider, err := s.userRepo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrInvalidProvider
		}
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if provider.Role != model.RoleProvider {
		return nil, apperror.ErrInvalidProvider
	}

	contract := &model.Contract{
		ProviderID: providerID,
		Title:      req.Title,
		Content:    req.Content,
		StartDate:  startDate,
		EndDate:    endDate,
		Amount:     req.Amount,
		Currency:   model.DefaultCurrency,
		Status:     model.ContractStatusDraft,
		Notes:      req.Notes,
		CreatedBy:  &actor.UserID,
	}
	if req.Currency != "" {
		contract.Currency = strings.ToUpper(req.Currency)
	}
	if req.TemplateID != nil && *req.TemplateID != "" {
		templateID := uuid.MustParse(*req.TemplateID)
		if _, err := s.templateRepo.FindByID(ctx, templateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.ErrInvalidTemplate
			}
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		contract.TemplateID = &templateID
	}
	if req.Metadata != nil {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, apperror.Validation("validation failed", map[string]string{"metadata": "Metadata is invalid"})
		}
		contract.Metadata = datatypes.JSON(metadata)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.insertWithNumber(txCtx, contract); err != nil {
			return err
		}
		return s.versionRepo.Create(txCtx, &model.ContractVersion{
			ContractID:    contract.ID,
			VersionNumber: 1,
			Content:       contract.Content,
			ChangedBy:     &actor.UserID,
			ChangeNotes:   model.InitialVersionNote,
		})
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	contract.Provider = provider

	logger.Info(ctx, "contract created", "contract_id", contract.ID, "contract_number", contract.ContractNumber)
	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionCreateContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    map[string]interface{}{"contract_number": contract.ContractNumber, "title": contract.Title},
	})
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventContractCreated, contract, actor.UserID))

	res := toContractResponse(contract, true)
	return &res, nil
}

// insertWithNumber assigns a fresh contract number, retrying on collisions with
// existing rows or a concurrent insert.
func (s *contractService) insertWithNumber(ctx context.Context, contract *model.Contract) error {
	for attempt := 1; attempt <= MaxNumberAttempts; attempt++ {
		number := s.numbers(s.now())
		exists, err := s.contractRepo.NumberExists(ctx, number)
		if err != nil {
			return fmt.Errorf("failed to check contract number: %w", err)
		}
		if exists {
			logger.Debug(ctx, "contract number taken", "contract_number", number, "attempt", attempt)
			continue
		}

		contract.ContractNumber = number
		err = s.contractRepo.Create(ctx, contract)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to insert contract: %w", err)
		}
		logger.Warn(ctx, "contract number collision on insert", "contract_number", number, "attempt", attempt)
	}
	return apperror.ErrNumberExhausted
}

func (s *contractService) Update(ctx context.Context, actor ActorContext, id string, req UpdateContractRequest) (*ContractResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status == model.ContractStatusSigned && !req.Force {
		return nil, apperror.ErrInvalidTransition
	}
	if req.isEmpty() {
		return nil, apperror.ErrNoFieldsProvided
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	fields, err := contractUpdateFields(contract, req)
	if err != nil {
		return nil, err
	}
	contentChanged := req.Content != nil && *req.Content != contract.Content

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.contractRepo.Update(txCtx, contract.ID, fields); err != nil {
			return err
		}
		if !contentChanged {
			return nil
		}
		latest, err := s.versionRepo.MaxVersion(txCtx, contract.ID)
		if err != nil {
			return err
		}
		notes := strings.TrimSpace(req.ChangeNotes)
		if notes == "" {
			notes = model.DefaultVersionNote
		}
		return s.versionRepo.Create(txCtx, &model.ContractVersion{
			ContractID:    contract.ID,
			VersionNumber: latest + 1,
			Content:       *req.Content,
			ChangedBy:     &actor.UserID,
			ChangeNotes:   notes,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	updated, err := s.contractRepo.FindByID(ctx, contract.ID)
	if err != nil {
		return nil, notFoundOr(err, "contract")
	}

	details := map[string]interface{}{"fields": sortedKeys(fields)}
	if req.Force {
		details["force"] = true
	}
	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionUpdateContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    details,
	})

	res := toContractResponse(updated, true)
	return &res, nil
}

func contractUpdateFields(current *model.Contract, req UpdateContractRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	invalid := make(map[string]string)

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			invalid["title"] = "Title is required"
		}
		fields["title"] = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			invalid["content"] = "Content is required"
		}
		fields["content"] = *req.Content
	}

	startDate, endDate := current.StartDate, current.EndDate
	if req.StartDate != nil {
		startDate = parseDateField(invalid, "start_date", "Start Date", req.StartDate)
		fields["start_date"] = startDate
	}
	if req.EndDate != nil {
		endDate = parseDateField(invalid, "end_date", "End Date", req.EndDate)
		fields["end_date"] = endDate
	}
	if req.Amount != nil {
		fields["amount"] = *req.Amount
	}
	if err := mergeInvalid(invalid, checkTerms(startDate, endDate, req.Amount != nil && req.Amount.IsNegative())); err != nil {
		return nil, err
	}
	if req.Currency != nil {
		fields["currency"] = strings.ToUpper(*req.Currency)
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.Metadata != nil {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			invalid["metadata"] = "Metadata is invalid"
		}
		fields["metadata"] = datatypes.JSON(metadata)
	}

	if len(invalid) > 0 {
		return nil, apperror.Validation("validation failed", invalid)
	}
	return fields, nil
}

// parseDateField parses an optional YYYY-MM-DD value; an empty string clears the
// date. Malformed input is reported under field.
func parseDateField(invalid map[string]string, field, label string, value *string) *time.Time {
	t, err := parseDate(value)
	if err != nil {
		invalid[field] = label + " must be a date in " + dateLayout + " format"
		return nil
	}
	return t
}

// mergeInvalid folds the field errors of a validation failure into invalid.
// Any other error is returned unchanged.
func mergeInvalid(invalid map[string]string, err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind != apperror.KindValidation {
		return err
	}
	for k, v := range appErr.Fields {
		invalid[k] = v
	}
	return nil
}

// checkTerms validates the contract period and amount.
func checkTerms(start, end *time.Time, negativeAmount bool) error {
	invalid := make(map[string]string)
	if start != nil && end != nil && end.Before(*start) {
		invalid["end_date"] = "End Date must not be before Start Date"
	}
	if negativeAmount {
		invalid["amount"] = "Amount must be greater than or equal to 0"
	}
	if len(invalid) > 0 {
		return apperror.Validation("validation failed", invalid)
	}
	return nil
}

// Send marks the contract as sent to its provider. Resending an already sent
// contract is allowed and notifies the provider again.
func (s *contractService) Send(ctx context.Context, actor ActorContext, id string) (*ContractResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := contract.Status
	if err := s.contractRepo.Update(ctx, contract.ID, map[string]interface{}{"status": model.ContractStatusSent}); err != nil {
		return nil, fmt.Errorf("failed to send contract: %w", err)
	}
	contract.Status = model.ContractStatusSent

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionSendContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    map[string]interface{}{"contract_number": contract.ContractNumber, "previous_status": previous},
	})
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventContractSent, contract, actor.UserID))

	res := toContractResponse(contract, true)
	return &res, nil
}

func (s *contractService) Delete(ctx context.Context, actor ActorContext, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	contract, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if model.IsDeletionProtected(contract.Status) {
		return apperror.ErrContractProtected
	}

	if err := s.contractRepo.Delete(ctx, contract.ID); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionDeleteContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    map[string]interface{}{"contract_number": contract.ContractNumber},
	})
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventContractDeleted, contract, actor.UserID))
	return nil
}

func (s *contractService) RenderPDF(ctx context.Context, actor ActorContext, id string) (*PDFFile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.printer.print(ctx, contract)
}

func (s *contractService) find(ctx context.Context, id string) (*model.Contract, error) {
	contractID, err := parseID(id, "contract")
	if err != nil {
		return nil, err
	}
	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return nil, notFoundOr(err, "contract")
	}
	return contract, nil
}
