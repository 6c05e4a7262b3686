// Package businessflow contains the core business logic and use cases for distribution workflows
package businessflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/config"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	"github.com/oyadama/fukubiki/utils"
)

// DistributionFlow resolves which campaign a tenant currently distributes and
// applies tenant customizations to its bindings
type DistributionFlow interface {
	ResolveCurrent(ctx context.Context, req *dto.GetCurrentCampaignRequest, metadata *ClientMetadata) (*dto.GetCurrentCampaignResponse, error)
	// ResolveCurrentBinding is the shared resolution path used by the entry
	// and widget flows; same semantics as ResolveCurrent but returns the raw
	// records alongside the merged view.
	ResolveCurrentBinding(ctx context.Context, tenantUUID string, metadata *ClientMetadata) (*CurrentResolution, error)
	ListActiveCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error)
	CustomizeCurrent(ctx context.Context, req *dto.CustomizeBindingRequest, metadata *ClientMetadata) (*dto.CustomizeBindingResponse, error)
	DeactivateCurrent(ctx context.Context, req *dto.DeactivateBindingRequest, metadata *ClientMetadata) (*dto.DeactivateBindingResponse, error)
}

// DistributionFlowImpl implements the distribution business flow
type DistributionFlowImpl struct {
	tenantRepo   repository.TenantRepository
	campaignRepo repository.CampaignRepository
	bindingRepo  repository.TenantBindingRepository
	auditRepo    repository.AuditLogRepository
	widgetConfig config.WidgetConfig
}

// NewDistributionFlow creates a new distribution flow instance
func NewDistributionFlow(
	tenantRepo repository.TenantRepository,
	campaignRepo repository.CampaignRepository,
	bindingRepo repository.TenantBindingRepository,
	auditRepo repository.AuditLogRepository,
	widgetConfig config.WidgetConfig,
) DistributionFlow {
	return &DistributionFlowImpl{
		tenantRepo:   tenantRepo,
		campaignRepo: campaignRepo,
		bindingRepo:  bindingRepo,
		auditRepo:    auditRepo,
		widgetConfig: widgetConfig,
	}
}

// resolvedBinding pairs a binding with its campaign after resolution
type resolvedBinding struct {
	binding  *models.TenantBinding
	campaign *models.Campaign
}

// CurrentResolution is the raw result of resolving a tenant's current campaign
type CurrentResolution struct {
	Tenant   *models.Tenant
	Campaign *models.Campaign
	Binding  *models.TenantBinding
	View     *EffectiveView
}

// ResolveCurrent finds the tenant's single current campaign, lazily
// provisioning missing bindings along the way
func (s *DistributionFlowImpl) ResolveCurrent(ctx context.Context, req *dto.GetCurrentCampaignRequest, metadata *ClientMetadata) (*dto.GetCurrentCampaignResponse, error) {
	resolution, err := s.ResolveCurrentBinding(ctx, req.Tenant, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.GetCurrentCampaignResponse{
		Campaign: *ToEffectiveCampaignDTO(resolution.View),
	}, nil
}

// ResolveCurrentBinding resolves the tenant's current campaign and returns
// the raw records alongside the merged view
func (s *DistributionFlowImpl) ResolveCurrentBinding(ctx context.Context, tenantUUID string, metadata *ClientMetadata) (*CurrentResolution, error) {
	tenant, err := s.getActiveTenant(ctx, tenantUUID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.resolveActive(ctx, tenant, metadata)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, NewBusinessError("NO_ACTIVE_CAMPAIGN", "No active campaign", ErrNoActiveCampaign)
	}

	current := pickCurrent(candidates)
	if len(candidates) > 1 {
		// Tie-break applied; record the condition for operator investigation
		desc := fmt.Sprintf("tenant %s had %d effective bindings, picked campaign %s", tenant.UUID, len(candidates), current.campaign.UUID)
		_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionBindingInvariantViolated, desc, true, nil, metadata, nil)
	}

	view := MergeEffectiveView(current.binding, current.campaign, tenant.UUID.String(), s.widgetConfig.PublicBaseURL, s.widgetConfig.APIBaseURL)

	return &CurrentResolution{
		Tenant:   tenant,
		Campaign: current.campaign,
		Binding:  current.binding,
		View:     view,
	}, nil
}

// ListActiveCampaigns returns every active campaign merged for the tenant,
// provisioning missing bindings as a side effect
func (s *DistributionFlowImpl) ListActiveCampaigns(ctx context.Context, req *dto.ListCampaignsRequest, metadata *ClientMetadata) (*dto.ListCampaignsResponse, error) {
	tenant, err := s.getActiveTenant(ctx, req.Tenant)
	if err != nil {
		return nil, err
	}

	candidates, err := s.resolveActive(ctx, tenant, metadata)
	if err != nil {
		return nil, err
	}

	campaigns := make([]dto.EffectiveCampaignDTO, 0, len(candidates))
	for _, c := range candidates {
		view := MergeEffectiveView(c.binding, c.campaign, tenant.UUID.String(), s.widgetConfig.PublicBaseURL, s.widgetConfig.APIBaseURL)
		campaigns = append(campaigns, *ToEffectiveCampaignDTO(view))
	}

	return &dto.ListCampaignsResponse{
		Campaigns: campaigns,
		Total:     len(campaigns),
	}, nil
}

// CustomizeCurrent applies the tenant's overrides to its current binding
func (s *DistributionFlowImpl) CustomizeCurrent(ctx context.Context, req *dto.CustomizeBindingRequest, metadata *ClientMetadata) (*dto.CustomizeBindingResponse, error) {
	if err := validateCustomization(req); err != nil {
		return nil, NewBusinessError("CUSTOMIZATION_VALIDATION_FAILED", "Customization validation failed", err)
	}

	tenant, err := s.getActiveTenant(ctx, req.Tenant)
	if err != nil {
		return nil, err
	}

	candidates, err := s.resolveActive(ctx, tenant, metadata)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, NewBusinessError("NO_ACTIVE_CAMPAIGN", "No active campaign", ErrNoActiveCampaign)
	}

	current := pickCurrent(candidates)
	binding := current.binding

	if req.Title != nil {
		binding.Title = req.Title
	}
	if req.Description != nil {
		binding.Description = req.Description
	}
	if req.Media != nil {
		media := models.MediaList(req.Media)
		binding.Media = &media
	}
	if req.PrimaryMediaIndex != nil {
		binding.PrimaryMediaIndex = req.PrimaryMediaIndex
	}
	if req.CoverMediaURL != nil {
		binding.CoverMediaURL = req.CoverMediaURL
	}
	if req.BrandColor != nil {
		binding.Overrides.BrandColor = req.BrandColor
	}
	if req.LogoURL != nil {
		binding.Overrides.LogoURL = req.LogoURL
	}
	if req.RedirectURL != nil {
		binding.Overrides.RedirectURL = req.RedirectURL
	}
	if req.Template != nil {
		binding.Overrides.Template = req.Template
	}
	if req.ExtraMedia != nil {
		binding.Overrides.ExtraMedia = req.ExtraMedia
	}
	if req.Questions != nil {
		binding.Overrides.Questions = req.Questions
	}

	if err := s.bindingRepo.Update(ctx, *binding); err != nil {
		errMsg := fmt.Sprintf("Binding customization failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionBindingCustomized, errMsg, false, &errMsg, metadata, nil)

		return nil, NewBusinessError("CUSTOMIZATION_FAILED", "Failed to save customization", err)
	}

	msg := fmt.Sprintf("Binding %s customized", binding.UUID)
	_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionBindingCustomized, msg, true, nil, metadata, nil)

	view := MergeEffectiveView(binding, current.campaign, tenant.UUID.String(), s.widgetConfig.PublicBaseURL, s.widgetConfig.APIBaseURL)

	return &dto.CustomizeBindingResponse{
		Message:  "Customization saved",
		Campaign: *ToEffectiveCampaignDTO(view),
	}, nil
}

// DeactivateCurrent deactivates the tenant's current binding. The record is
// kept so entry and winner history stays referable.
func (s *DistributionFlowImpl) DeactivateCurrent(ctx context.Context, req *dto.DeactivateBindingRequest, metadata *ClientMetadata) (*dto.DeactivateBindingResponse, error) {
	tenant, err := s.getActiveTenant(ctx, req.Tenant)
	if err != nil {
		return nil, err
	}

	candidates, err := s.resolveActive(ctx, tenant, metadata)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, NewBusinessError("NO_ACTIVE_CAMPAIGN", "No active campaign", ErrNoActiveCampaign)
	}

	current := pickCurrent(candidates)
	binding := current.binding
	binding.IsActive = utils.ToPtr(false)

	if err := s.bindingRepo.Update(ctx, *binding); err != nil {
		return nil, NewBusinessError("DEACTIVATION_FAILED", "Failed to deactivate binding", err)
	}

	msg := fmt.Sprintf("Binding %s deactivated", binding.UUID)
	_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionBindingDeactivated, msg, true, nil, metadata, nil)

	return &dto.DeactivateBindingResponse{
		Message:     "Binding deactivated",
		BindingUUID: binding.UUID.String(),
	}, nil
}

// getActiveTenant loads and gates the tenant by UUID
func (s *DistributionFlowImpl) getActiveTenant(ctx context.Context, tenantUUID string) (*models.Tenant, error) {
	if tenantUUID == "" {
		return nil, NewBusinessError("TENANT_REQUIRED", "Tenant parameter is required", ErrTenantParamRequired)
	}

	tenant, err := s.tenantRepo.ByUUID(ctx, tenantUUID)
	if err != nil {
		return nil, NewBusinessError("TENANT_LOOKUP_FAILED", "Failed to lookup tenant", err)
	}
	if tenant == nil {
		return nil, NewBusinessError("TENANT_NOT_FOUND", "Tenant not found", ErrTenantNotFound)
	}
	if !utils.IsTrue(tenant.IsActive) {
		return nil, NewBusinessError("TENANT_INACTIVE", "Tenant is inactive", ErrTenantInactive)
	}

	return tenant, nil
}

// resolveActive provisions missing bindings for every active campaign and
// returns the tenant's effective candidates, newest campaign start first.
// Safe under concurrent callers: conflicting provisions are skipped silently.
func (s *DistributionFlowImpl) resolveActive(ctx context.Context, tenant *models.Tenant, metadata *ClientMetadata) ([]resolvedBinding, error) {
	now := utils.UTCNow()

	active, err := s.campaignRepo.ListActiveAt(ctx, now)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to list active campaigns", err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	campaignIDs := make([]uint, 0, len(active))
	byID := make(map[uint]*models.Campaign, len(active))
	for _, c := range active {
		campaignIDs = append(campaignIDs, c.ID)
		byID[c.ID] = c
	}

	created, err := s.bindingRepo.ProvisionMissing(ctx, tenant.ID, campaignIDs)
	if err != nil {
		return nil, NewBusinessError("BINDING_PROVISION_FAILED", "Failed to provision bindings", err)
	}
	if created > 0 {
		desc := fmt.Sprintf("Provisioned %d bindings for tenant %s", created, tenant.UUID)
		_ = createAuditLog(ctx, s.auditRepo, &tenant.ID, nil, models.AuditActionBindingsProvisioned, desc, true, nil, metadata, map[string]any{"created": created})
	}

	bindings, err := s.bindingRepo.ListActiveByTenant(ctx, tenant.ID, campaignIDs)
	if err != nil {
		return nil, NewBusinessError("BINDING_LOOKUP_FAILED", "Failed to list bindings", err)
	}

	candidates := make([]resolvedBinding, 0, len(bindings))
	for _, b := range bindings {
		campaign, ok := byID[b.CampaignID]
		if !ok || !campaign.IsActiveAt(now) {
			continue
		}
		candidates = append(candidates, resolvedBinding{binding: b, campaign: campaign})
	}

	// Latest campaign start first; ties broken by newest binding
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i].campaign, candidates[j].campaign
		if !ci.StartsAt.Equal(cj.StartsAt) {
			return ci.StartsAt.After(cj.StartsAt)
		}
		bi, bj := candidates[i].binding, candidates[j].binding
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.After(bj.CreatedAt)
		}
		return bi.ID > bj.ID
	})

	return candidates, nil
}

// pickCurrent returns the winning candidate after the resolveActive sort
func pickCurrent(candidates []resolvedBinding) resolvedBinding {
	return candidates[0]
}

// validateCustomization enforces the override limits and question shape
func validateCustomization(req *dto.CustomizeBindingRequest) error {
	if len(req.ExtraMedia) > utils.MaxExtraMediaItems {
		return ErrTooManyExtraMedia
	}
	if len(req.Questions) > utils.MaxCustomQuestions {
		return ErrTooManyQuestions
	}

	seen := make(map[string]struct{}, len(req.Questions))
	for _, q := range req.Questions {
		if q.ID == "" || q.Prompt == "" {
			return ErrInvalidQuestionType
		}
		switch q.Type {
		case "text", "choice", "checkbox":
		default:
			return ErrInvalidQuestionType
		}
		if _, dup := seen[q.ID]; dup {
			return ErrDuplicateQuestionIDs
		}
		seen[q.ID] = struct{}{}
	}

	return nil
}

// ToEffectiveCampaignDTO converts a merged view to its transport shape
func ToEffectiveCampaignDTO(view *EffectiveView) *dto.EffectiveCampaignDTO {
	return &dto.EffectiveCampaignDTO{
		TenantUUID:        view.TenantUUID,
		CampaignUUID:      view.CampaignUUID,
		BindingUUID:       view.BindingUUID,
		Title:             view.Title,
		Description:       view.Description,
		StartsAt:          view.StartsAt,
		EndsAt:            view.EndsAt,
		Media:             view.Media,
		PrimaryMediaIndex: view.PrimaryMediaIndex,
		CoverMediaURL:     view.CoverMediaURL,
		BrandColor:        view.BrandColor,
		LogoURL:           view.LogoURL,
		RedirectURL:       view.RedirectURL,
		Template:          view.Template,
		ExtraMedia:        view.ExtraMedia,
		Questions:         view.Questions,
		EntryEndpoint:     view.EntryEndpoint,
		PublicURL:         view.PublicURL,
	}
}
