// Package testing provides test utilities and database setup for testing the prize draw platform
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestTenant creates an active tenant with a unique email
func (tf *TestFixtures) CreateTestTenant() (*models.Tenant, error) {
	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	tenant := &models.Tenant{
		Name:     "Test Tenant " + suffix,
		Email:    fmt.Sprintf("tenant.%s@example.com", suffix),
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tenant: %w", err)
	}
	return tenant, nil
}

// CreateInactiveTenant creates a deactivated tenant
func (tf *TestFixtures) CreateInactiveTenant() (*models.Tenant, error) {
	tenant, err := tf.CreateTestTenant()
	if err != nil {
		return nil, err
	}
	tenant.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test tenant: %w", err)
	}
	return tenant, nil
}

// CreateTestCampaign creates a campaign whose window contains now
func (tf *TestFixtures) CreateTestCampaign() (*models.Campaign, error) {
	now := utils.UTCNow()
	return tf.CreateCampaignWithWindow(now.Add(-time.Hour), now.Add(24*time.Hour))
}

// CreateCampaignWithWindow creates a campaign with an explicit activity window
func (tf *TestFixtures) CreateCampaignWithWindow(startsAt, endsAt time.Time) (*models.Campaign, error) {
	campaign := &models.Campaign{
		Title:       "Summer Prize Draw",
		Description: "Win a trip for two.",
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Media: models.MediaList{
			{URL: "https://cdn.example.com/draw-hero.jpg", Kind: models.MediaKindImage, AltText: "Prize"},
			{URL: "https://cdn.example.com/draw-teaser.mp4", Kind: models.MediaKindVideo},
		},
		PrimaryMediaIndex: 0,
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestBinding creates an active binding between a tenant and a campaign
func (tf *TestFixtures) CreateTestBinding(tenant *models.Tenant, campaign *models.Campaign) (*models.TenantBinding, error) {
	binding := &models.TenantBinding{
		TenantID:   tenant.ID,
		CampaignID: campaign.ID,
		IsActive:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(binding).Error; err != nil {
		return nil, fmt.Errorf("failed to create test binding: %w", err)
	}
	return binding, nil
}

// CreateTestEntry creates an entry for the given tenant and campaign with a
// unique email
func (tf *TestFixtures) CreateTestEntry(tenant *models.Tenant, campaign *models.Campaign) (*models.Entry, error) {
	suffix := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	entry := &models.Entry{
		TenantID:        tenant.ID,
		CampaignID:      campaign.ID,
		FirstName:       "Hanako",
		LastName:        "Yamada",
		Email:           fmt.Sprintf("entrant.%s@example.com", suffix),
		Answers:         models.AnswerMap{},
		TermsAgreed:     true,
		MarketingAgreed: false,
		SourceIP:        "203.0.113.10",
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test entry: %w", err)
	}
	return entry, nil
}

// CreateTestAdmin creates an active operator account with the given password
func (tf *TestFixtures) CreateTestAdmin(password string) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	admin := &models.Admin{
		Username:     "operator_" + suffix,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}
