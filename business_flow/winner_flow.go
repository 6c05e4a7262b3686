// Package businessflow contains the core business logic and use cases for winner selection workflows
package businessflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	"github.com/oyadama/fukubiki/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	winnerDrawsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winner_draws_total",
			Help: "Total winner selection attempts partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// WinnerFlow performs the fair random draw over a campaign's entries
type WinnerFlow interface {
	SelectWinner(ctx context.Context, req *dto.SelectWinnerRequest, metadata *ClientMetadata) (*dto.SelectWinnerResponse, error)
	ListWinners(ctx context.Context, req *dto.ListWinnersRequest, metadata *ClientMetadata) (*dto.ListWinnersResponse, error)
	UpdateWinner(ctx context.Context, req *dto.UpdateWinnerRequest, metadata *ClientMetadata) (*dto.UpdateWinnerResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListAdminCampaignsRequest, metadata *ClientMetadata) (*dto.ListAdminCampaignsResponse, error)
}

// WinnerFlowImpl implements the winner selection business flow
type WinnerFlowImpl struct {
	campaignRepo repository.CampaignRepository
	entryRepo    repository.EntryRepository
	winnerRepo   repository.WinnerRepository
	tenantRepo   repository.TenantRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewWinnerFlow creates a new winner flow instance
func NewWinnerFlow(
	campaignRepo repository.CampaignRepository,
	entryRepo repository.EntryRepository,
	winnerRepo repository.WinnerRepository,
	tenantRepo repository.TenantRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) WinnerFlow {
	return &WinnerFlowImpl{
		campaignRepo: campaignRepo,
		entryRepo:    entryRepo,
		winnerRepo:   winnerRepo,
		tenantRepo:   tenantRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// SelectWinner draws one entry uniformly at random across all tenants of the
// campaign. The unique index on winners.campaign_id is the mutual-exclusion
// gate: of two concurrent draws exactly one insert lands, the other receives
// AlreadySelected.
func (s *WinnerFlowImpl) SelectWinner(ctx context.Context, req *dto.SelectWinnerRequest, metadata *ClientMetadata) (*dto.SelectWinnerResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	// Cheap pre-check; the unique index still decides under concurrency
	existing, err := s.winnerRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("WINNER_LOOKUP_FAILED", "Failed to lookup winner", err)
	}
	if existing != nil {
		winnerDrawsTotal.WithLabelValues("already_selected").Inc()
		return nil, NewBusinessError("WINNER_ALREADY_SELECTED", "Winner already selected for this campaign", ErrWinnerAlreadySelected)
	}

	entries, err := s.entryRepo.ListByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to list entries", err)
	}
	if len(entries) == 0 {
		winnerDrawsTotal.WithLabelValues("no_entries").Inc()
		return nil, NewBusinessError("NO_ENTRIES", "Campaign has no entries", ErrNoEntries)
	}

	drawn, err := drawUniform(entries)
	if err != nil {
		return nil, NewBusinessError("DRAW_FAILED", "Random draw failed", err)
	}

	ticketRef, err := generateTicketRef()
	if err != nil {
		return nil, NewBusinessError("DRAW_FAILED", "Failed to generate ticket reference", err)
	}

	winner := &models.Winner{
		CampaignID: campaign.ID,
		TenantID:   drawn.TenantID,
		EntryID:    drawn.ID,
		TicketRef:  ticketRef,
		SelectedBy: req.AdminID,
		Method:     utils.WinnerSelectionMethodRandom,
		SelectedAt: utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.winnerRepo.Save(txCtx, winner)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			// Lost the race against a concurrent draw
			winnerDrawsTotal.WithLabelValues("already_selected").Inc()
			return nil, NewBusinessError("WINNER_ALREADY_SELECTED", "Winner already selected for this campaign", ErrWinnerAlreadySelected)
		}

		errMsg := fmt.Sprintf("Winner selection failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &drawn.TenantID, &req.AdminID, models.AuditActionWinnerSelectionFailed, errMsg, false, &errMsg, metadata, nil)
		winnerDrawsTotal.WithLabelValues("error").Inc()

		return nil, NewBusinessError("WINNER_SAVE_FAILED", "Failed to save winner", err)
	}

	desc := fmt.Sprintf("Winner %s drawn for campaign %s from %d entries", winner.UUID, campaign.UUID, len(entries))
	_ = createAuditLog(ctx, s.auditRepo, &drawn.TenantID, &req.AdminID, models.AuditActionWinnerSelected, desc, true, nil, metadata, map[string]any{
		"ticket_ref": ticketRef,
		"pool_size":  len(entries),
	})
	winnerDrawsTotal.WithLabelValues("selected").Inc()

	winnerDTO, err := s.toWinnerDTO(ctx, winner, campaign, drawn)
	if err != nil {
		return nil, err
	}

	return &dto.SelectWinnerResponse{
		Message: "Winner selected",
		Winner:  *winnerDTO,
	}, nil
}

// ListWinners pages through past draws, newest first. With a campaign scope
// the result is the campaign's single winner or an empty list.
func (s *WinnerFlowImpl) ListWinners(ctx context.Context, req *dto.ListWinnersRequest, metadata *ClientMetadata) (*dto.ListWinnersResponse, error) {
	if req.Campaign != nil {
		return s.listWinnersForCampaign(ctx, *req.Campaign)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	winners, total, err := s.winnerRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("WINNER_LOOKUP_FAILED", "Failed to list winners", err)
	}

	winnerDTOs := make([]dto.WinnerDTO, 0, len(winners))
	for _, w := range winners {
		winnerDTO, err := s.toWinnerDTO(ctx, w, nil, nil)
		if err != nil {
			return nil, err
		}
		winnerDTOs = append(winnerDTOs, *winnerDTO)
	}

	return &dto.ListWinnersResponse{
		Winners: winnerDTOs,
		Total:   total,
	}, nil
}

func (s *WinnerFlowImpl) listWinnersForCampaign(ctx context.Context, campaignUUID string) (*dto.ListWinnersResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	winner, err := s.winnerRepo.ByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("WINNER_LOOKUP_FAILED", "Failed to lookup winner", err)
	}
	if winner == nil {
		return &dto.ListWinnersResponse{Winners: []dto.WinnerDTO{}, Total: 0}, nil
	}

	winnerDTO, err := s.toWinnerDTO(ctx, winner, campaign, nil)
	if err != nil {
		return nil, err
	}

	return &dto.ListWinnersResponse{
		Winners: []dto.WinnerDTO{*winnerDTO},
		Total:   1,
	}, nil
}

// ListCampaigns pages through every campaign for operator draw tooling,
// annotated with entry pool size and whether a winner has been drawn
func (s *WinnerFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListAdminCampaignsRequest, metadata *ClientMetadata) (*dto.ListAdminCampaignsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	campaigns, total, err := s.campaignRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to list campaigns", err)
	}

	now := utils.UTCNow()
	campaignDTOs := make([]dto.AdminCampaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		entryCount, err := s.entryRepo.CountByCampaign(ctx, c.ID)
		if err != nil {
			return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to count campaign entries", err)
		}

		winner, err := s.winnerRepo.ByCampaignID(ctx, c.ID)
		if err != nil {
			return nil, NewBusinessError("WINNER_LOOKUP_FAILED", "Failed to lookup winner", err)
		}

		campaignDTOs = append(campaignDTOs, dto.AdminCampaignDTO{
			UUID:       c.UUID.String(),
			Title:      c.Title,
			StartsAt:   c.StartsAt,
			EndsAt:     c.EndsAt,
			Active:     c.IsActiveAt(now),
			EntryCount: entryCount,
			HasWinner:  winner != nil,
		})
	}

	return &dto.ListAdminCampaignsResponse{
		Campaigns: campaignDTOs,
		Total:     total,
	}, nil
}

// UpdateWinner mutates the downstream contact/claim workflow fields
func (s *WinnerFlowImpl) UpdateWinner(ctx context.Context, req *dto.UpdateWinnerRequest, metadata *ClientMetadata) (*dto.UpdateWinnerResponse, error) {
	winner, err := s.winnerRepo.ByUUID(ctx, req.WinnerUUID)
	if err != nil {
		return nil, NewBusinessError("WINNER_LOOKUP_FAILED", "Failed to lookup winner", err)
	}
	if winner == nil {
		return nil, NewBusinessError("WINNER_NOT_FOUND", "Winner not found", ErrWinnerNotFound)
	}

	if req.ContactedAt != nil {
		winner.ContactedAt = req.ContactedAt
	}
	if req.ClaimedAt != nil {
		winner.ClaimedAt = req.ClaimedAt
	}
	if req.Notes != nil {
		winner.Notes = req.Notes
	}

	if err := s.winnerRepo.Update(ctx, winner); err != nil {
		return nil, NewBusinessError("WINNER_UPDATE_FAILED", "Failed to update winner", err)
	}

	winnerDTO, err := s.toWinnerDTO(ctx, winner, nil, nil)
	if err != nil {
		return nil, err
	}

	return &dto.UpdateWinnerResponse{
		Message: "Winner updated",
		Winner:  *winnerDTO,
	}, nil
}

// toWinnerDTO resolves the winner's related records into transport shape.
// campaign and entry may be nil, in which case they are loaded.
func (s *WinnerFlowImpl) toWinnerDTO(ctx context.Context, winner *models.Winner, campaign *models.Campaign, entry *models.Entry) (*dto.WinnerDTO, error) {
	var err error

	if campaign == nil {
		campaign, err = s.campaignRepo.ByID(ctx, winner.CampaignID)
		if err != nil || campaign == nil {
			return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup winner campaign", err)
		}
	}
	if entry == nil {
		entry, err = s.entryRepo.ByID(ctx, winner.EntryID)
		if err != nil || entry == nil {
			return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to lookup winner entry", err)
		}
	}

	tenant, err := s.tenantRepo.ByID(ctx, winner.TenantID)
	if err != nil || tenant == nil {
		return nil, NewBusinessError("TENANT_LOOKUP_FAILED", "Failed to lookup winner tenant", err)
	}

	return &dto.WinnerDTO{
		UUID:         winner.UUID.String(),
		CampaignUUID: campaign.UUID.String(),
		TenantUUID:   tenant.UUID.String(),
		EntryUUID:    entry.UUID.String(),
		FirstName:    entry.FirstName,
		LastName:     entry.LastName,
		Email:        entry.Email,
		TicketRef:    winner.TicketRef,
		Method:       winner.Method,
		SelectedAt:   winner.SelectedAt,
		ContactedAt:  winner.ContactedAt,
		ClaimedAt:    winner.ClaimedAt,
		Notes:        winner.Notes,
	}, nil
}

// drawUniform picks one entry uniformly at random using a cryptographically
// sound source. The outcome has real-world value, so a predictable sequence
// is not acceptable here.
func drawUniform(entries []*models.Entry) (*models.Entry, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(entries))))
	if err != nil {
		return nil, fmt.Errorf("failed to read random source: %w", err)
	}
	return entries[n.Int64()], nil
}

// generateTicketRef produces the audit reference recorded on the winner row
func generateTicketRef() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate ticket reference: %w", err)
	}
	return "TKT-" + hex.EncodeToString(bytes), nil
}
