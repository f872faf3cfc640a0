package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Casework
// =============================================================================

// MockCaseRepository is a mock implementation of casework.CaseRepository
type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.Case), args.Error(1)
}

func (m *MockCaseRepository) FindByTrackingCode(ctx context.Context, code string) (*casework.Case, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.Case), args.Error(1)
}

func (m *MockCaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Case, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.Case), args.Error(1)
}

func (m *MockCaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCaseRepository) FindPooledBefore(ctx context.Context, poolID uuid.UUID, cutoff time.Time, limit int) ([]casework.Case, error) {
	args := m.Called(ctx, poolID, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.Case), args.Error(1)
}

func (m *MockCaseRepository) CountByStatus(ctx context.Context) (map[casework.CaseStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[casework.CaseStatus]int64), args.Error(1)
}

func (m *MockCaseRepository) ExistsByTrackingCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCaseRepository) Save(ctx context.Context, c *casework.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCaseRepository) SaveWithLock(ctx context.Context, c *casework.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockEscalationRepository is a mock implementation of casework.EscalationRepository
type MockEscalationRepository struct {
	mock.Mock
}

func (m *MockEscalationRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Escalation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.Escalation), args.Error(1)
}

func (m *MockEscalationRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]casework.Escalation, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.Escalation), args.Error(1)
}

func (m *MockEscalationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Escalation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.Escalation), args.Error(1)
}

func (m *MockEscalationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEscalationRepository) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEscalationRepository) HasOpenSystemEscalation(ctx context.Context, caseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, caseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEscalationRepository) Save(ctx context.Context, e *casework.Escalation) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockComplianceFlagRepository is a mock implementation of casework.ComplianceFlagRepository
type MockComplianceFlagRepository struct {
	mock.Mock
}

func (m *MockComplianceFlagRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.ComplianceFlag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.ComplianceFlag), args.Error(1)
}

func (m *MockComplianceFlagRepository) FindByCase(ctx context.Context, caseID uuid.UUID) ([]casework.ComplianceFlag, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.ComplianceFlag), args.Error(1)
}

func (m *MockComplianceFlagRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.ComplianceFlag, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.ComplianceFlag), args.Error(1)
}

func (m *MockComplianceFlagRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockComplianceFlagRepository) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockComplianceFlagRepository) HasBlockingFlag(ctx context.Context, caseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, caseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockComplianceFlagRepository) Save(ctx context.Context, f *casework.ComplianceFlag) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

// MockContactLogRepository is a mock implementation of casework.ContactLogRepository
type MockContactLogRepository struct {
	mock.Mock
}

func (m *MockContactLogRepository) FindByCase(ctx context.Context, caseID uuid.UUID, filter shared.Filter) ([]casework.ContactLog, error) {
	args := m.Called(ctx, caseID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.ContactLog), args.Error(1)
}

func (m *MockContactLogRepository) CountByCase(ctx context.Context, caseID uuid.UUID) (int64, error) {
	args := m.Called(ctx, caseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactLogRepository) Create(ctx context.Context, log *casework.ContactLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// MockPoolRepository is a mock implementation of casework.PoolRepository
type MockPoolRepository struct {
	mock.Mock
}

func (m *MockPoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*casework.Pool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.Pool), args.Error(1)
}

func (m *MockPoolRepository) FindByCity(ctx context.Context, city string) (*casework.Pool, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*casework.Pool), args.Error(1)
}

func (m *MockPoolRepository) FindAll(ctx context.Context, filter shared.Filter) ([]casework.Pool, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]casework.Pool), args.Error(1)
}

func (m *MockPoolRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPoolRepository) ExistsByCity(ctx context.Context, city string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, city, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPoolRepository) Save(ctx context.Context, p *casework.Pool) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// =============================================================================
// Partner
// =============================================================================

// MockPDRepository is a mock implementation of partner.PDRepository
type MockPDRepository struct {
	mock.Mock
}

func (m *MockPDRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PD, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PD), args.Error(1)
}

func (m *MockPDRepository) FindByCode(ctx context.Context, code string) (*partner.PD, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PD), args.Error(1)
}

func (m *MockPDRepository) FindByEmail(ctx context.Context, email string) (*partner.PD, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PD), args.Error(1)
}

func (m *MockPDRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.PD, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.PD), args.Error(1)
}

func (m *MockPDRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.PD, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.PD), args.Error(1)
}

func (m *MockPDRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPDRepository) CountByStatus(ctx context.Context, status partner.PDStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPDRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockPDRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockPDRepository) Save(ctx context.Context, pd *partner.PD) error {
	args := m.Called(ctx, pd)
	return args.Error(0)
}

// MockApplicationRepository is a mock implementation of partner.ApplicationRepository
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.PDApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PDApplication), args.Error(1)
}

func (m *MockApplicationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.PDApplication, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.PDApplication), args.Error(1)
}

func (m *MockApplicationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepository) CountByStatus(ctx context.Context, status partner.ApplicationStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepository) ExistsOpenByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockApplicationRepository) FindStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]partner.PDApplication, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.PDApplication), args.Error(1)
}

func (m *MockApplicationRepository) Save(ctx context.Context, app *partner.PDApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

// MockChannelRepository is a mock implementation of partner.ChannelRepository
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.ClinicalChannel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.ClinicalChannel), args.Error(1)
}

func (m *MockChannelRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.ClinicalChannel, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.ClinicalChannel), args.Error(1)
}

func (m *MockChannelRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChannelRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockChannelRepository) Save(ctx context.Context, channel *partner.ClinicalChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

// MockProviderRepository is a mock implementation of partner.ProviderRepository
type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Provider), args.Error(1)
}

func (m *MockProviderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Provider, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Provider), args.Error(1)
}

func (m *MockProviderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProviderRepository) Save(ctx context.Context, provider *partner.Provider) error {
	args := m.Called(ctx, provider)
	return args.Error(0)
}

// =============================================================================
// Earnings
// =============================================================================

// MockLedgerRepository is a mock implementation of earnings.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*earnings.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*earnings.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]earnings.LedgerEntry, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]earnings.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]earnings.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]earnings.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) ExistsAccrualForCase(ctx context.Context, caseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, caseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) SumByStatus(ctx context.Context, pdID *uuid.UUID) (map[earnings.EntryStatus]decimal.Decimal, error) {
	args := m.Called(ctx, pdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[earnings.EntryStatus]decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) Save(ctx context.Context, entry *earnings.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// =============================================================================
// Identity and audit
// =============================================================================

// MockAdminUserRepository is a mock implementation of identity.AdminUserRepository
type MockAdminUserRepository struct {
	mock.Mock
}

func (m *MockAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.AdminUser, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdminUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminUserRepository) Save(ctx context.Context, user *identity.AdminUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, log *audit.Log) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Log, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Log), args.Error(1)
}

func (m *MockAuditRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

var (
	_ casework.CaseRepository           = (*MockCaseRepository)(nil)
	_ casework.EscalationRepository     = (*MockEscalationRepository)(nil)
	_ casework.ComplianceFlagRepository = (*MockComplianceFlagRepository)(nil)
	_ casework.ContactLogRepository     = (*MockContactLogRepository)(nil)
	_ casework.PoolRepository           = (*MockPoolRepository)(nil)
	_ partner.PDRepository              = (*MockPDRepository)(nil)
	_ partner.ApplicationRepository     = (*MockApplicationRepository)(nil)
	_ partner.ChannelRepository         = (*MockChannelRepository)(nil)
	_ partner.ProviderRepository        = (*MockProviderRepository)(nil)
	_ earnings.LedgerRepository         = (*MockLedgerRepository)(nil)
	_ identity.AdminUserRepository      = (*MockAdminUserRepository)(nil)
	_ audit.Repository                  = (*MockAuditRepository)(nil)
)
