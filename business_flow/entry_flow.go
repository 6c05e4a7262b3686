// Package businessflow contains the core business logic and use cases for entry workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/app/services"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	"github.com/oyadama/fukubiki/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xuri/excelize/v2"
)

var (
	entrySubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_submissions_total",
			Help: "Total entry submission attempts partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// EntryFlow accepts, exports, and aggregates entrant submissions
type EntryFlow interface {
	Submit(ctx context.Context, req *dto.SubmitEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error)
	InitCaptcha(ctx context.Context) (*dto.GetCaptchaResponse, error)
	Export(ctx context.Context, req *dto.ExportEntriesRequest, metadata *ClientMetadata) (string, []byte, error)
	Stats(ctx context.Context, req *dto.EntryStatsRequest, metadata *ClientMetadata) (*dto.EntryStatsResponse, error)
}

// EntryFlowImpl implements the entry business flow
type EntryFlowImpl struct {
	distribution   DistributionFlow
	entryRepo      repository.EntryRepository
	tenantRepo     repository.TenantRepository
	campaignRepo   repository.CampaignRepository
	bindingRepo    repository.TenantBindingRepository
	auditRepo      repository.AuditLogRepository
	captchaSvc     services.CaptchaService
	captchaEnabled bool
}

// NewEntryFlow creates a new entry flow instance
func NewEntryFlow(
	distribution DistributionFlow,
	entryRepo repository.EntryRepository,
	tenantRepo repository.TenantRepository,
	campaignRepo repository.CampaignRepository,
	bindingRepo repository.TenantBindingRepository,
	auditRepo repository.AuditLogRepository,
	captchaSvc services.CaptchaService,
	captchaEnabled bool,
) EntryFlow {
	return &EntryFlowImpl{
		distribution:   distribution,
		entryRepo:      entryRepo,
		tenantRepo:     tenantRepo,
		campaignRepo:   campaignRepo,
		bindingRepo:    bindingRepo,
		auditRepo:      auditRepo,
		captchaSvc:     captchaSvc,
		captchaEnabled: captchaEnabled,
	}
}

// Submit validates and stores one entrant submission against the tenant's
// current campaign. The store's unique index is the final dedupe authority;
// a race between two identical submissions still yields exactly one entry.
func (s *EntryFlowImpl) Submit(ctx context.Context, req *dto.SubmitEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error) {
	if s.captchaEnabled {
		if req.CaptchaID == "" {
			entrySubmissionsTotal.WithLabelValues("rejected").Inc()
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha challenge missing", ErrInvalidCaptcha)
		}
		if s.captchaSvc == nil || !s.captchaSvc.VerifyRotate(ctx, req.CaptchaID, req.CaptchaAngle) {
			entrySubmissionsTotal.WithLabelValues("rejected").Inc()
			return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
		}
	}

	if !req.AgreedToTerms {
		entrySubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, NewBusinessError("TERMS_NOT_AGREED", "Terms must be agreed", ErrTermsNotAgreed)
	}

	resolution, err := s.distribution.ResolveCurrentBinding(ctx, req.Tenant, metadata)
	if err != nil {
		entrySubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := validateAnswers(req.Answers, resolution.Binding.Overrides.Questions); err != nil {
		entrySubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, NewBusinessError("INVALID_ANSWER", "Answer validation failed", err)
	}

	entry := &models.Entry{
		TenantID:        resolution.Tenant.ID,
		CampaignID:      resolution.Campaign.ID,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Answers:         models.AnswerMap(req.Answers),
		TermsAgreed:     req.AgreedToTerms,
		MarketingAgreed: req.AgreedToMarketing,
	}
	if metadata != nil {
		entry.SourceIP = metadata.IPAddress
	}

	if err := s.entryRepo.Save(ctx, entry); err != nil {
		if repository.IsDuplicateKey(err) {
			desc := fmt.Sprintf("Duplicate entry rejected for campaign %s", resolution.Campaign.UUID)
			_ = createAuditLog(ctx, s.auditRepo, &resolution.Tenant.ID, nil, models.AuditActionEntryRejected, desc, false, nil, metadata, nil)
			entrySubmissionsTotal.WithLabelValues("duplicate").Inc()

			return nil, NewBusinessError("DUPLICATE_ENTRY", "An entry with this email already exists", ErrDuplicateEntry)
		}
		entrySubmissionsTotal.WithLabelValues("error").Inc()
		return nil, NewBusinessError("ENTRY_SAVE_FAILED", "Failed to save entry", err)
	}

	desc := fmt.Sprintf("Entry %s stored for campaign %s", entry.UUID, resolution.Campaign.UUID)
	_ = createAuditLog(ctx, s.auditRepo, &resolution.Tenant.ID, nil, models.AuditActionEntrySubmitted, desc, true, nil, metadata, nil)
	entrySubmissionsTotal.WithLabelValues("accepted").Inc()

	return &dto.SubmitEntryResponse{
		Message:     "Entry stored",
		EntryUUID:   entry.UUID.String(),
		SubmittedAt: entry.SubmittedAt,
	}, nil
}

// InitCaptcha issues a new rotate-captcha challenge for the public entry form
func (s *EntryFlowImpl) InitCaptcha(ctx context.Context) (*dto.GetCaptchaResponse, error) {
	if s.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_NOT_AVAILABLE", "Captcha service not available", ErrCacheNotAvailable)
	}

	ch, err := s.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}

	return &dto.GetCaptchaResponse{
		CaptchaID:   ch.ID,
		MasterImage: ch.MasterImageBase64,
		ThumbImage:  ch.ThumbImageBase64,
	}, nil
}

// Export produces an xlsx workbook of a tenant's entries for one campaign.
// Columns follow the binding's current question list, so the file stays
// columnar even when questions changed mid-campaign; missing answers render
// as empty cells.
func (s *EntryFlowImpl) Export(ctx context.Context, req *dto.ExportEntriesRequest, metadata *ClientMetadata) (string, []byte, error) {
	tenant, err := s.tenantRepo.ByUUID(ctx, req.Tenant)
	if err != nil {
		return "", nil, NewBusinessError("TENANT_LOOKUP_FAILED", "Failed to lookup tenant", err)
	}
	if tenant == nil {
		return "", nil, NewBusinessError("TENANT_NOT_FOUND", "Tenant not found", ErrTenantNotFound)
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, req.Campaign)
	if err != nil {
		return "", nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return "", nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	binding, err := s.bindingRepo.ByTenantAndCampaign(ctx, tenant.ID, campaign.ID)
	if err != nil {
		return "", nil, NewBusinessError("BINDING_LOOKUP_FAILED", "Failed to lookup binding", err)
	}
	if binding == nil {
		return "", nil, NewBusinessError("BINDING_NOT_FOUND", "Binding not found", ErrBindingNotFound)
	}

	questions := binding.Overrides.Questions

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"first_name", "last_name", "email", "submitted_at", "terms_agreed", "marketing_agreed"}
	for _, q := range questions {
		header = append(header, q.Prompt)
	}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	const pageSize = 500
	rowIdx := 2
	for offset := 0; ; offset += pageSize {
		entries, err := s.entryRepo.ListByTenantAndCampaign(ctx, tenant.ID, campaign.ID, pageSize, offset)
		if err != nil {
			return "", nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to list entries", err)
		}

		for _, e := range entries {
			record := []string{
				e.FirstName,
				e.LastName,
				e.Email,
				e.SubmittedAt.UTC().Format(time.RFC3339),
				fmt.Sprintf("%t", e.TermsAgreed),
				fmt.Sprintf("%t", e.MarketingAgreed),
			}
			for _, q := range questions {
				record = append(record, e.Answers[q.ID])
			}

			cellRef, _ := excelize.CoordinatesToCellName(1, rowIdx)
			_ = xl.SetSheetRow(sheet, cellRef, &record)
			rowIdx++
		}

		if len(entries) < pageSize {
			break
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to build export file", err)
	}

	desc := fmt.Sprintf("Exported %d entries for campaign %s", rowIdx-2, campaign.UUID)
	_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionEntriesExported, desc, true, nil, metadata, map[string]any{"rows": rowIdx - 2})

	filename := fmt.Sprintf("entries_%s_%s.xlsx", tenant.UUID, campaign.UUID)
	return filename, buf.Bytes(), nil
}

// Stats aggregates a tenant's entry activity. All aggregation happens in the
// database.
func (s *EntryFlowImpl) Stats(ctx context.Context, req *dto.EntryStatsRequest, metadata *ClientMetadata) (*dto.EntryStatsResponse, error) {
	tenant, err := s.tenantRepo.ByUUID(ctx, req.Tenant)
	if err != nil {
		return nil, NewBusinessError("TENANT_LOOKUP_FAILED", "Failed to lookup tenant", err)
	}
	if tenant == nil {
		return nil, NewBusinessError("TENANT_NOT_FOUND", "Tenant not found", ErrTenantNotFound)
	}

	var campaignID *uint
	if req.Campaign != nil {
		campaign, err := s.campaignRepo.ByUUID(ctx, *req.Campaign)
		if err != nil {
			return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
		}
		if campaign == nil {
			return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
		}
		campaignID = &campaign.ID
	}

	total, err := s.entryRepo.CountByTenantAndCampaign(ctx, tenant.ID, campaignID)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count entries", err)
	}

	uniqueEmails, err := s.entryRepo.CountDistinctEmails(ctx, tenant.ID, campaignID)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count distinct emails", err)
	}

	since := utils.UTCNow().AddDate(0, 0, -utils.StatsWindowDays)
	daily, err := s.entryRepo.DailyCounts(ctx, tenant.ID, campaignID, since)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to group daily counts", err)
	}

	dailyDTOs := make([]dto.DailyEntryCountDTO, 0, len(daily))
	for _, d := range daily {
		dailyDTOs = append(dailyDTOs, dto.DailyEntryCountDTO{
			Day:   d.Day.UTC().Format("2006-01-02"),
			Count: d.Count,
		})
	}

	return &dto.EntryStatsResponse{
		TotalEntries:     total,
		UniqueEmailCount: uniqueEmails,
		DailyCounts:      dailyDTOs,
	}, nil
}

// validateAnswers checks submitted answers against the binding's current
// question list
func validateAnswers(answers map[string]string, questions []models.CustomQuestion) error {
	byID := make(map[string]models.CustomQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for id, value := range answers {
		q, ok := byID[id]
		if !ok {
			return ErrUnknownQuestion
		}
		if q.Type == "choice" && value != "" {
			valid := false
			for _, opt := range q.Options {
				if value == opt {
					valid = true
					break
				}
			}
			if !valid {
				return ErrInvalidOptionValue
			}
		}
	}

	for _, q := range questions {
		if q.Required && strings.TrimSpace(answers[q.ID]) == "" {
			return ErrMissingAnswer
		}
	}

	return nil
}
