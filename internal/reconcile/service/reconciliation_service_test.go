package service

import (
	"context"
	"testing"

	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type serviceFixture struct {
	portal   *MockPortalClient
	store    *MockStoreClient
	prober   *MockAccountProber
	verifier *MockCredentialVerifier
	executor *MockStrategyExecutor
	sessions *MockSessionSynchronizer
	health   *MockHealthMonitor
	service  *ReconciliationService
}

func newServiceFixture(storeEnabled bool) *serviceFixture {
	log.Init("DEBUG")
	f := &serviceFixture{
		portal:   new(MockPortalClient),
		store:    new(MockStoreClient),
		prober:   new(MockAccountProber),
		verifier: new(MockCredentialVerifier),
		executor: new(MockStrategyExecutor),
		sessions: new(MockSessionSynchronizer),
		health:   new(MockHealthMonitor),
	}
	f.service = &ReconciliationService{
		portal:       f.portal,
		store:        f.store,
		prober:       f.prober,
		verifier:     f.verifier,
		executor:     f.executor,
		sessions:     f.sessions,
		health:       f.health,
		storeEnabled: storeEnabled,
	}
	return f
}

func TestSignupProbesSelectsAndExecutes(t *testing.T) {
	f := newServiceFixture(true)
	req := model.SignupRequest{Email: "new@example.com", Password: "secret", AccessMode: model.AccessModeBoth}
	status := certainStatus(false, false, false, nil)

	f.prober.On("Probe", mock.Anything, req.Email).Return(status)
	f.executor.On("Execute", mock.Anything, model.StrategyCreateBoth, req, status, mock.AnythingOfType("string")).
		Return(&model.ReconciliationOutcome{Success: true, Action: model.ActionCreated})

	outcome := f.service.Signup(context.Background(), req)

	assert.True(t, outcome.Success)
	f.prober.AssertExpectations(t)
	f.executor.AssertExpectations(t)
}

func TestSignupDefaultsAccessModeToBoth(t *testing.T) {
	f := newServiceFixture(true)
	req := model.SignupRequest{Email: "new@example.com", Password: "secret"}
	status := certainStatus(false, false, false, nil)

	f.prober.On("Probe", mock.Anything, req.Email).Return(status)
	f.executor.On("Execute", mock.Anything, model.StrategyCreateBoth,
		mock.MatchedBy(func(r model.SignupRequest) bool { return r.AccessMode == model.AccessModeBoth }),
		status, mock.AnythingOfType("string")).
		Return(&model.ReconciliationOutcome{Success: true})

	f.service.Signup(context.Background(), req)

	f.executor.AssertExpectations(t)
}

func TestLoginPortalSuccessUnlinkedAccount(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).
		Return(&model.Profile{Ref: model.IdentityRef{PortalID: "p-1"}, Email: req.Email}, nil)

	outcome := f.service.Login(context.Background(), req)

	assert.True(t, outcome.Success)
	assert.Equal(t, "Welcome back.", outcome.Message)
	f.sessions.AssertNotCalled(t, "SyncSession", mock.Anything)
}

func TestLoginPortalSuccessLinkedAccountSyncsSession(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}
	profile := &model.Profile{Ref: model.IdentityRef{PortalID: "p-1", StoreID: 42}, Email: req.Email}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).Return(profile, nil)
	f.health.On("StoreReachable").Return(true)
	f.sessions.On("SyncSession", profile).Return()

	outcome := f.service.Login(context.Background(), req)

	assert.True(t, outcome.Success)
	assert.Equal(t, "Welcome back.", outcome.Message)
	f.sessions.AssertExpectations(t)
}

func TestLoginLinkedAccountStoreDownDegrades(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}
	profile := &model.Profile{Ref: model.IdentityRef{PortalID: "p-1", StoreID: 42}, Email: req.Email}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).Return(profile, nil)
	f.health.On("StoreReachable").Return(false)

	outcome := f.service.Login(context.Background(), req)

	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, pendingSyncNote)
	f.sessions.AssertNotCalled(t, "SyncSession", mock.Anything)
}

func TestLoginMigratesVerifiedStoreOnlyUser(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "shopper@example.com", Password: "secret"}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).
		Return(nil, portalclient.ErrUserNotFound)
	f.store.On("CheckUser", mock.Anything, req.Email).
		Return(&model.AccountSnapshot{Exists: true, Email: req.Email, Ref: model.IdentityRef{StoreID: 42}}, nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(&model.Profile{Ref: model.IdentityRef{StoreID: 42}, Email: req.Email, FirstName: "Jane"}, nil)
	f.executor.On("Execute", mock.Anything, model.StrategyCreatePortalLinkStore,
		mock.MatchedBy(func(r model.SignupRequest) bool { return r.FirstName == "Jane" }),
		mock.Anything, mock.AnythingOfType("string")).
		Return(&model.ReconciliationOutcome{
			Success:       true,
			Action:        model.ActionCreated,
			PortalAccount: &model.AccountSnapshot{Exists: true, Ref: model.IdentityRef{PortalID: "p-9"}},
		})
	f.sessions.On("SyncSession", mock.MatchedBy(func(p *model.Profile) bool {
		return p.Ref.PortalID == "p-9" && p.Ref.StoreID == 42
	})).Return()

	outcome := f.service.Login(context.Background(), req)

	assert.True(t, outcome.Success)
	assert.Equal(t, "Welcome back.", outcome.Message)
	f.executor.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestLoginNeverRevealsWhichSystemRejected(t *testing.T) {
	f := newServiceFixture(true)

	// Unknown everywhere.
	f.portal.On("SignIn", mock.Anything, "ghost@example.com", "secret").
		Return(nil, portalclient.ErrUserNotFound)
	f.store.On("CheckUser", mock.Anything, "ghost@example.com").
		Return(&model.AccountSnapshot{Exists: false}, nil)

	// Store account exists but password is wrong.
	f.portal.On("SignIn", mock.Anything, "shopper@example.com", "wrong").
		Return(nil, portalclient.ErrUserNotFound)
	f.store.On("CheckUser", mock.Anything, "shopper@example.com").
		Return(&model.AccountSnapshot{Exists: true, Ref: model.IdentityRef{StoreID: 42}}, nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, "shopper@example.com", "wrong").
		Return(nil, ErrInvalidCredentials)

	unknown := f.service.Login(context.Background(), model.LoginRequest{Email: "ghost@example.com", Password: "secret"})
	wrongPassword := f.service.Login(context.Background(), model.LoginRequest{Email: "shopper@example.com", Password: "wrong"})

	assert.False(t, unknown.Success)
	assert.False(t, wrongPassword.Success)
	assert.Equal(t, unknown.Message, wrongPassword.Message)
	assert.Equal(t, "Invalid email or password.", unknown.Message)
}

func TestLoginStoreCheckFailureCollapsesToInvalidCredentials(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).
		Return(nil, portalclient.ErrInvalidLogin)
	f.store.On("CheckUser", mock.Anything, req.Email).
		Return(nil, errors.New("store timed out"))

	outcome := f.service.Login(context.Background(), req)

	assert.False(t, outcome.Success)
	assert.Equal(t, "Invalid email or password.", outcome.Message)
}

func TestLoginSkipsStoreFallbackWhenSyncDisabled(t *testing.T) {
	f := newServiceFixture(false)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).
		Return(nil, portalclient.ErrInvalidLogin)

	outcome := f.service.Login(context.Background(), req)

	assert.False(t, outcome.Success)
	f.store.AssertNotCalled(t, "CheckUser", mock.Anything, mock.Anything)
}

func TestLoginPortalOutageIsNotACredentialFailure(t *testing.T) {
	f := newServiceFixture(true)
	req := model.LoginRequest{Email: "user@example.com", Password: "secret"}

	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).
		Return(nil, portalclient.ErrDatabaseError)

	outcome := f.service.Login(context.Background(), req)

	assert.False(t, outcome.Success)
	assert.Equal(t, "The service is temporarily unavailable. Please try again later.", outcome.Message)
	f.store.AssertNotCalled(t, "CheckUser", mock.Anything, mock.Anything)
}

func TestLogoutMirrorsStoreSignOutForLinkedUsers(t *testing.T) {
	f := newServiceFixture(true)

	f.sessions.On("MirrorLogout", int64(42)).Return()
	f.portal.On("SignOut", mock.Anything, "p-1").Return(nil)

	err := f.service.Logout(context.Background(), model.LogoutRequest{PortalID: "p-1", StoreID: 42})

	assert.NoError(t, err)
	f.sessions.AssertExpectations(t)
	f.portal.AssertExpectations(t)
}

func TestLogoutSkipsStoreForUnlinkedUsers(t *testing.T) {
	f := newServiceFixture(true)

	f.portal.On("SignOut", mock.Anything, "p-1").Return(nil)

	err := f.service.Logout(context.Background(), model.LogoutRequest{PortalID: "p-1"})

	assert.NoError(t, err)
	f.sessions.AssertNotCalled(t, "MirrorLogout", mock.Anything)
}
