package service

import (
	"context"
	"time"

	compmodel "github.com/bda-portal/identity-reconciliation-service/internal/compensation/model"
	compservice "github.com/bda-portal/identity-reconciliation-service/internal/compensation/service"
	healthmodel "github.com/bda-portal/identity-reconciliation-service/internal/healthmonitor/model"
	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/stretchr/testify/mock"
)

// MockPortalClient implements portalclient.PortalClientInterface for testing
type MockPortalClient struct {
	mock.Mock
}

func (m *MockPortalClient) SignIn(ctx context.Context, email, password string) (*model.Profile, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockPortalClient) SignUp(ctx context.Context, params portalclient.SignUpParams) (*model.Profile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockPortalClient) UpdateUserProfile(ctx context.Context, portalID string, updates portalclient.ProfileUpdates) error {
	args := m.Called(ctx, portalID, updates)
	return args.Error(0)
}

func (m *MockPortalClient) LinkStoreAccount(ctx context.Context, portalID string, storeID int64) error {
	args := m.Called(ctx, portalID, storeID)
	return args.Error(0)
}

func (m *MockPortalClient) UpsertUserAccount(ctx context.Context, params portalclient.SignUpParams) (*model.Profile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockPortalClient) ResetPasswordForEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockPortalClient) FindUserByEmail(ctx context.Context, email string) (*model.AccountSnapshot, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountSnapshot), args.Error(1)
}

func (m *MockPortalClient) SignOut(ctx context.Context, portalID string) error {
	args := m.Called(ctx, portalID)
	return args.Error(0)
}

// MockStoreClient implements storeclient.StoreClientInterface for testing
type MockStoreClient struct {
	mock.Mock
}

func (m *MockStoreClient) VerifyCredentials(ctx context.Context, email, password string) (*storeclient.VerifyResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storeclient.VerifyResult), args.Error(1)
}

func (m *MockStoreClient) CheckUser(ctx context.Context, email string) (*model.AccountSnapshot, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountSnapshot), args.Error(1)
}

func (m *MockStoreClient) CreateUser(ctx context.Context, params storeclient.CreateUserParams) (*storeclient.StoreUser, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storeclient.StoreUser), args.Error(1)
}

func (m *MockStoreClient) SyncProfile(ctx context.Context, storeUserID int64, profile storeclient.ProfileData) error {
	args := m.Called(ctx, storeUserID, profile)
	return args.Error(0)
}

func (m *MockStoreClient) CreateSession(ctx context.Context, storeUserID int64) error {
	args := m.Called(ctx, storeUserID)
	return args.Error(0)
}

func (m *MockStoreClient) Logout(ctx context.Context, storeUserID int64) error {
	args := m.Called(ctx, storeUserID)
	return args.Error(0)
}

func (m *MockStoreClient) Liveness(ctx context.Context) (*storeclient.LivenessResult, time.Duration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(time.Duration), args.Error(2)
	}
	return args.Get(0).(*storeclient.LivenessResult), args.Get(1).(time.Duration), args.Error(2)
}

// MockCredentialVerifier implements CredentialVerifierInterface for testing
type MockCredentialVerifier struct {
	mock.Mock
}

func (m *MockCredentialVerifier) Verify(ctx context.Context, system, email, password string) (*model.Profile, error) {
	args := m.Called(ctx, system, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

// MockHealthMonitor implements healthservice.HealthMonitorInterface for testing
type MockHealthMonitor struct {
	mock.Mock
}

func (m *MockHealthMonitor) Initialize(ctx context.Context) *healthmodel.HealthSnapshot {
	args := m.Called(ctx)
	return args.Get(0).(*healthmodel.HealthSnapshot)
}

func (m *MockHealthMonitor) CheckNow(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockHealthMonitor) ForceCheck(ctx context.Context) *healthmodel.HealthSnapshot {
	args := m.Called(ctx)
	return args.Get(0).(*healthmodel.HealthSnapshot)
}

func (m *MockHealthMonitor) CachedStatus() *healthmodel.HealthSnapshot {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*healthmodel.HealthSnapshot)
}

func (m *MockHealthMonitor) StoreReachable() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockHealthMonitor) Stop() {
	m.Called()
}

// MockCompensationService implements compservice.CompensationServiceInterface for testing
type MockCompensationService struct {
	mock.Mock
}

func (m *MockCompensationService) RecordRollbackPending(action compservice.PendingAction) (*compmodel.CompensationRecord, error) {
	args := m.Called(action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compmodel.CompensationRecord), args.Error(1)
}

func (m *MockCompensationService) RecordManualReview(action compservice.PendingAction) (*compmodel.CompensationRecord, error) {
	args := m.Called(action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compmodel.CompensationRecord), args.Error(1)
}

func (m *MockCompensationService) ListPending() ([]*compmodel.CompensationRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*compmodel.CompensationRecord), args.Error(1)
}

func (m *MockCompensationService) Resolve(recordID string) (*compmodel.CompensationRecord, error) {
	args := m.Called(recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compmodel.CompensationRecord), args.Error(1)
}

// MockAccountProber implements AccountProberInterface for testing
type MockAccountProber struct {
	mock.Mock
}

func (m *MockAccountProber) Probe(ctx context.Context, email string) model.AccountStatus {
	args := m.Called(ctx, email)
	return args.Get(0).(model.AccountStatus)
}

// MockStrategyExecutor implements StrategyExecutorInterface for testing
type MockStrategyExecutor struct {
	mock.Mock
}

func (m *MockStrategyExecutor) Execute(ctx context.Context, strategy model.Strategy,
	req model.SignupRequest, status model.AccountStatus, traceID string) *model.ReconciliationOutcome {
	args := m.Called(ctx, strategy, req, status, traceID)
	return args.Get(0).(*model.ReconciliationOutcome)
}

// MockSessionSynchronizer implements session.SessionSynchronizerInterface for testing
type MockSessionSynchronizer struct {
	mock.Mock
}

func (m *MockSessionSynchronizer) SyncSession(profile *model.Profile) {
	m.Called(profile)
}

func (m *MockSessionSynchronizer) MirrorLogout(storeID int64) {
	m.Called(storeID)
}
