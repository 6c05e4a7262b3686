package businessflow

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
)

// decodeWidgetMarkup pulls the markup back out of the script's
// `var html = ...` JSON string literal.
func decodeWidgetMarkup(t *testing.T, script string) string {
	t.Helper()

	_, rest, ok := strings.Cut(script, "var html = ")
	require.True(t, ok, "script must assign the markup to var html")
	literal, _, ok := strings.Cut(rest, ";\n")
	require.True(t, ok)

	var markup string
	require.NoError(t, json.Unmarshal([]byte(literal), &markup))
	return markup
}

func TestCampaignScriptEscapesUntrustedContent(t *testing.T) {
	view := &EffectiveView{
		TenantUUID:  uuid.New().String(),
		Title:       `<script>alert("xss")</script>`,
		Description: `"></div><img onerror=alert(1)>`,
		Media: models.MediaList{
			{URL: "https://cdn.example.com/hero.jpg", Kind: models.MediaKindImage, AltText: `alt"text`},
		},
		PrimaryMediaIndex: 0,
		PublicURL:         "https://draw.example.com/c/abc?tenant=def",
	}

	script := campaignScript(view)

	// Untrusted fields must reach the markup HTML-escaped: no raw script
	// tag and no attribute breakout from the description survive decoding.
	markup := decodeWidgetMarkup(t, script)
	assert.Contains(t, markup, `&lt;script&gt;`)
	assert.NotContains(t, markup, `<script`)
	assert.NotContains(t, markup, `<img onerror`)
	assert.NotContains(t, markup, `"></div>`)

	// The campaign's own media image is trusted markup and must remain intact
	assert.Contains(t, markup, `<img class="fukubiki-media" src="https://cdn.example.com/hero.jpg"`)

	// Container lookup is keyed on the tenant
	assert.Contains(t, script, "fukubiki-widget-")
	assert.Contains(t, script, "data-fukubiki-tenant")
}

func TestCampaignScriptUsesBrandColor(t *testing.T) {
	view := &EffectiveView{
		TenantUUID: uuid.New().String(),
		Title:      "Draw",
		BrandColor: utils.ToPtr("#ff6600"),
		PublicURL:  "https://draw.example.com/c/abc",
	}

	assert.Contains(t, campaignScript(view), "#ff6600")
	view.BrandColor = nil
	assert.Contains(t, campaignScript(view), "#1a1a2e")
}

func TestCampaignScriptSkipsNonImagePrimaryMedia(t *testing.T) {
	view := &EffectiveView{
		TenantUUID: uuid.New().String(),
		Title:      "Draw",
		Media: models.MediaList{
			{URL: "https://cdn.example.com/teaser.mp4", Kind: models.MediaKindVideo},
		},
		PrimaryMediaIndex: 0,
		PublicURL:         "https://draw.example.com/c/abc",
	}

	assert.NotContains(t, campaignScript(view), "fukubiki-media")
}

func TestPlaceholderScriptIsValidForEmptyTenant(t *testing.T) {
	script := placeholderScript("", "No active campaign right now")

	assert.True(t, strings.HasPrefix(script, "(function()"))
	assert.Contains(t, script, "No active campaign right now")
	assert.Contains(t, script, "fukubiki-widget-empty")
}

func TestWidgetScriptSerializesMarkupAsJSONString(t *testing.T) {
	tenant := uuid.New().String()
	script := widgetScript(tenant, `line1
line2 "quoted"`)

	// Newlines and quotes must be escaped inside the string literal
	assert.Contains(t, script, `line1\nline2 \"quoted\"`)
	assert.Contains(t, script, tenant)
}
