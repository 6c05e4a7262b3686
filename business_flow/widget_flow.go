// Package businessflow contains the core business logic and use cases for widget workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/oyadama/fukubiki/config"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	widgetRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_renders_total",
			Help: "Total widget script requests partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// WidgetFlow renders a tenant's current campaign as an embeddable script.
// This is the one flow that must degrade instead of failing: the script runs
// inside a third-party host page, so a broken embed is never acceptable.
type WidgetFlow interface {
	Render(ctx context.Context, tenantUUID string, metadata *ClientMetadata) string
	RecentCalls(ctx context.Context, limit int) ([]WidgetCall, error)
}

// WidgetCall is one recorded widget request in the bounded call log
type WidgetCall struct {
	TenantUUID string    `json:"tenant_uuid"`
	Outcome    string    `json:"outcome"` // rendered, placeholder, error
	IPAddress  string    `json:"ip_address,omitempty"`
	CalledAt   time.Time `json:"called_at"`
}

// WidgetFlowImpl implements the widget rendering flow
type WidgetFlowImpl struct {
	distribution DistributionFlow
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
	widgetConfig config.WidgetConfig
}

// NewWidgetFlow creates a new widget flow instance
func NewWidgetFlow(
	distribution DistributionFlow,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	widgetConfig config.WidgetConfig,
) WidgetFlow {
	return &WidgetFlowImpl{
		distribution: distribution,
		rc:           rc,
		cacheConfig:  cacheConfig,
		widgetConfig: widgetConfig,
	}
}

// Render produces the widget script for a tenant. Never returns an error:
// any failure yields a placeholder script instead.
func (s *WidgetFlowImpl) Render(ctx context.Context, tenantUUID string, metadata *ClientMetadata) string {
	if tenantUUID == "" {
		s.logCall(ctx, tenantUUID, "error", metadata)
		return placeholderScript(tenantUUID, "This draw is currently unavailable.")
	}

	cacheKey := ""
	if s.cacheEnabled() {
		cacheKey = redisKey(*s.cacheConfig, "widget:"+tenantUUID)
		if cached, err := s.rc.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			s.logCall(ctx, tenantUUID, "rendered", metadata)
			return cached
		}
	}

	resolution, err := s.distribution.ResolveCurrentBinding(ctx, tenantUUID, metadata)
	if err != nil {
		if IsNoActiveCampaign(err) || IsTenantNotFound(err) || IsTenantInactive(err) {
			s.logCall(ctx, tenantUUID, "placeholder", metadata)
			return placeholderScript(tenantUUID, "No active campaign right now. Check back soon!")
		}
		// Store trouble; still hand the host page something harmless
		s.logCall(ctx, tenantUUID, "error", metadata)
		return placeholderScript(tenantUUID, "This draw is currently unavailable.")
	}

	script := campaignScript(resolution.View)

	if s.cacheEnabled() {
		// Never serve a stale current campaign past its end date: clamp the
		// TTL to the remaining campaign window.
		ttl := s.widgetConfig.CacheTTL
		if remaining := time.Until(resolution.Campaign.EndsAt); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
		if ttl > 0 {
			_ = s.rc.Set(ctx, cacheKey, script, ttl).Err()
		}
	}

	s.logCall(ctx, tenantUUID, "rendered", metadata)
	return script
}

// RecentCalls reads the bounded widget call log, newest first
func (s *WidgetFlowImpl) RecentCalls(ctx context.Context, limit int) ([]WidgetCall, error) {
	if !s.cacheEnabled() {
		return nil, ErrCacheNotAvailable
	}
	if limit <= 0 || limit > s.widgetConfig.CallLogSize {
		limit = s.widgetConfig.CallLogSize
	}

	raw, err := s.rc.LRange(ctx, s.callLogKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read widget call log: %w", err)
	}

	calls := make([]WidgetCall, 0, len(raw))
	for _, item := range raw {
		var call WidgetCall
		if err := json.Unmarshal([]byte(item), &call); err != nil {
			continue
		}
		calls = append(calls, call)
	}

	return calls, nil
}

func (s *WidgetFlowImpl) cacheEnabled() bool {
	return s.rc != nil && s.cacheConfig != nil && s.cacheConfig.Enabled
}

func (s *WidgetFlowImpl) callLogKey() string {
	return redisKey(*s.cacheConfig, "widget:calls")
}

// logCall counts the outcome and appends to the bounded call log. LPUSH plus
// LTRIM keeps the list capped at CallLogSize entries; failures are ignored,
// the log is advisory.
func (s *WidgetFlowImpl) logCall(ctx context.Context, tenantUUID, outcome string, metadata *ClientMetadata) {
	widgetRendersTotal.WithLabelValues(outcome).Inc()

	if !s.cacheEnabled() {
		return
	}

	call := WidgetCall{
		TenantUUID: tenantUUID,
		Outcome:    outcome,
		CalledAt:   utils.UTCNow(),
	}
	if metadata != nil {
		call.IPAddress = metadata.IPAddress
	}

	bs, err := json.Marshal(call)
	if err != nil {
		return
	}

	key := s.callLogKey()
	pipe := s.rc.Pipeline()
	pipe.LPush(ctx, key, bs)
	pipe.LTrim(ctx, key, 0, int64(s.widgetConfig.CallLogSize-1))
	_, _ = pipe.Exec(ctx)
}

// campaignScript builds the embeddable script for a resolved campaign view.
// The markup is serialized through json.Marshal so no character can break out
// of the script's string literal.
func campaignScript(view *EffectiveView) string {
	brandColor := "#1a1a2e"
	if view.BrandColor != nil {
		brandColor = *view.BrandColor
	}

	logoHTML := ""
	if view.LogoURL != nil {
		logoHTML = fmt.Sprintf(`<img class="fukubiki-logo" src="%s" alt="">`, html.EscapeString(*view.LogoURL))
	}

	mediaHTML := ""
	if m := view.PrimaryMedia(); m != nil && m.Kind == models.MediaKindImage {
		mediaHTML = fmt.Sprintf(`<img class="fukubiki-media" src="%s" alt="%s">`, html.EscapeString(m.URL), html.EscapeString(m.AltText))
	}

	markup := fmt.Sprintf(
		`<div class="fukubiki-widget" style="border:2px solid %s;border-radius:8px;padding:16px;font-family:sans-serif">`+
			`%s%s<h3 style="color:%s;margin:8px 0">%s</h3><p>%s</p>`+
			`<a class="fukubiki-cta" href="%s" style="display:inline-block;background:%s;color:#fff;padding:8px 20px;border-radius:4px;text-decoration:none">Enter the draw</a></div>`,
		html.EscapeString(brandColor),
		logoHTML,
		mediaHTML,
		html.EscapeString(brandColor),
		html.EscapeString(view.Title),
		html.EscapeString(view.Description),
		html.EscapeString(view.PublicURL),
		html.EscapeString(brandColor),
	)

	return widgetScript(view.TenantUUID, markup)
}

// placeholderScript renders a graceful empty state in the host page
func placeholderScript(tenantUUID, message string) string {
	markup := fmt.Sprintf(
		`<div class="fukubiki-widget fukubiki-widget-empty" style="border:1px dashed #ccc;border-radius:8px;padding:16px;font-family:sans-serif;color:#666">%s</div>`,
		html.EscapeString(message),
	)
	return widgetScript(tenantUUID, markup)
}

// widgetScript wraps markup in the container-locating bootstrap. The host
// page embeds either an element with id "fukubiki-widget-<tenant>" or any
// element carrying data-fukubiki-tenant="<tenant>".
func widgetScript(tenantUUID, markup string) string {
	markupJSON, _ := json.Marshal(markup)
	tenantJSON, _ := json.Marshal(tenantUUID)

	return fmt.Sprintf(`(function() {
  var tenant = %s;
  var html = %s;
  var el = document.getElementById("fukubiki-widget-" + tenant) ||
    document.querySelector('[data-fukubiki-tenant="' + tenant + '"]');
  if (el) { el.innerHTML = html; }
})();
`, tenantJSON, markupJSON)
}

// redisKey namespaces a cache key with the configured prefix
func redisKey(cfg config.CacheConfig, suffix string) string {
	return cfg.RedisPrefix + suffix
}
