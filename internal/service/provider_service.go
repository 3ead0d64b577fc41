package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/audit"
	"contractbuilder/internal/model"
	"contractbuilder/internal/notify"
	"contractbuilder/internal/pdf"
	"contractbuilder/internal/repository"

	"github.com/shopspring/decimal"
)

type SignContractRequest struct {
	Signature string `json:"signature"`
}

type RejectContractRequest struct {
	Reason string `json:"reason"`
}

type ProviderStatsResponse struct {
	TotalContracts   int64           `json:"total_contracts"`
	PendingContracts int64           `json:"pending_contracts"`
	ActiveContracts  int64           `json:"active_contracts"`
	TotalValue       decimal.Decimal `json:"total_value" swaggertype:"number"`
}

// ProviderService is what a provider can do with the contracts addressed to them.
type ProviderService interface {
	List(ctx context.Context, actor ActorContext, status string, page, limit int) ([]ContractResponse, int64, error)
	Get(ctx context.Context, actor ActorContext, id string) (*ContractResponse, error)
	Sign(ctx context.Context, actor ActorContext, id string, req SignContractRequest) (*ContractResponse, error)
	Reject(ctx context.Context, actor ActorContext, id string, req RejectContractRequest) (*ContractResponse, error)
	Stats(ctx context.Context, actor ActorContext) (*ProviderStatsResponse, error)
	RenderPDF(ctx context.Context, actor ActorContext, id string) (*PDFFile, error)
}

type providerService struct {
	txManager    repository.TransactionManager
	contractRepo repository.ContractRepository
	auditSink    audit.Sink
	publisher    notify.Publisher
	printer      contractPrinter
	now          func() time.Time
}

func NewProviderService(
	txManager repository.TransactionManager,
	contractRepo repository.ContractRepository,
	settingsRepo repository.SettingsRepository,
	auditSink audit.Sink,
	publisher notify.Publisher,
	renderer pdf.Renderer,
) ProviderService {
	return &providerService{
		txManager:    txManager,
		contractRepo: contractRepo,
		auditSink:    auditSink,
		publisher:    publisher,
		printer:      contractPrinter{settingsRepo: settingsRepo, renderer: renderer},
		now:          time.Now,
	}
}

func (s *providerService) List(ctx context.Context, actor ActorContext, status string, page, limit int) ([]ContractResponse, int64, error) {
	if err := requireProvider(actor); err != nil {
		return nil, 0, err
	}
	if status != "" && !model.IsValidContractStatus(status) {
		return nil, 0, apperror.Validation("validation failed", map[string]string{"status": "Status is invalid"})
	}

	filter := repository.ContractFilter{Status: status, ProviderID: &actor.UserID}
	filter.Page, filter.Limit = normalizePage(page, limit)
	contracts, total, err := s.contractRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list provider contracts: %w", err)
	}

	res := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		res = append(res, toContractResponse(&contracts[i], false))
	}
	return res, total, nil
}

func (s *providerService) Get(ctx context.Context, actor ActorContext, id string) (*ContractResponse, error) {
	contract, err := s.findOwn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	res := toContractResponse(contract, false)
	return &res, nil
}

func (s *providerService) Sign(ctx context.Context, actor ActorContext, id string, req SignContractRequest) (*ContractResponse, error) {
	contract, err := s.findOwn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusSent {
		return nil, apperror.ErrNotSignable
	}
	if contract.SignedByProvider {
		return nil, apperror.ErrAlreadySigned
	}

	signature := strings.TrimSpace(req.Signature)
	if signature == "" {
		signature = model.DefaultSignature
	}
	signedAt := s.now().UTC()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, err := s.contractRepo.MarkSigned(txCtx, contract.ID, actor.UserID, signature, signedAt)
		if err != nil {
			return fmt.Errorf("failed to sign contract: %w", err)
		}
		if rows == 0 {
			// Lost a race with another sign, reject or resend.
			return apperror.ErrNotSignable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.Status = model.ContractStatusSigned
	contract.SignedByProvider = true
	contract.SignedAt = &signedAt
	contract.ProviderSignature = signature

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionSignContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    map[string]interface{}{"contract_number": contract.ContractNumber},
	})
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventContractSigned, contract, actor.UserID))

	res := toContractResponse(contract, false)
	return &res, nil
}

func (s *providerService) Reject(ctx context.Context, actor ActorContext, id string, req RejectContractRequest) (*ContractResponse, error) {
	contract, err := s.findOwn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusSent {
		return nil, apperror.ErrNotRejectable
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = model.DefaultRejectReason
	}
	notes := contract.Notes + model.RejectionNotePrefix + reason

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, err := s.contractRepo.TransitionFrom(txCtx, contract.ID, model.ContractStatusSent, map[string]interface{}{
			"status": model.ContractStatusDraft,
			"notes":  notes,
		})
		if err != nil {
			return fmt.Errorf("failed to reject contract: %w", err)
		}
		if rows == 0 {
			return apperror.ErrNotRejectable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.Status = model.ContractStatusDraft
	contract.Notes = notes

	s.auditSink.Record(ctx, audit.Entry{
		UserID:     &actor.UserID,
		Action:     model.ActionRejectContract,
		EntityType: model.EntityContract,
		EntityID:   contract.ID.String(),
		Details:    map[string]interface{}{"contract_number": contract.ContractNumber, "reason": reason},
	})
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventContractRejected, contract, actor.UserID))

	res := toContractResponse(contract, false)
	return &res, nil
}

func (s *providerService) Stats(ctx context.Context, actor ActorContext) (*ProviderStatsResponse, error) {
	if err := requireProvider(actor); err != nil {
		return nil, err
	}
	stats, err := s.contractRepo.ProviderStats(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider stats: %w", err)
	}
	return &ProviderStatsResponse{
		TotalContracts:   stats.Total,
		PendingContracts: stats.Pending,
		ActiveContracts:  stats.Active,
		TotalValue:       stats.TotalValue,
	}, nil
}

func (s *providerService) RenderPDF(ctx context.Context, actor ActorContext, id string) (*PDFFile, error) {
	contract, err := s.findOwn(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.printer.print(ctx, contract)
}

// findOwn treats contracts of other providers exactly like missing ones.
func (s *providerService) findOwn(ctx context.Context, actor ActorContext, id string) (*model.Contract, error) {
	if err := requireProvider(actor); err != nil {
		return nil, err
	}
	contractID, err := parseID(id, "contract")
	if err != nil {
		return nil, err
	}
	contract, err := s.contractRepo.FindForProvider(ctx, contractID, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "contract")
	}
	return contract, nil
}
