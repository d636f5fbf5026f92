package service

import (
	"context"
	"testing"

	compmodel "github.com/bda-portal/identity-reconciliation-service/internal/compensation/model"
	compservice "github.com/bda-portal/identity-reconciliation-service/internal/compensation/service"
	portalclient "github.com/bda-portal/identity-reconciliation-service/internal/portal/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/constants"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type executorFixture struct {
	portal       *MockPortalClient
	store        *MockStoreClient
	verifier     *MockCredentialVerifier
	health       *MockHealthMonitor
	compensation *MockCompensationService
	executor     *StrategyExecutor
}

func newExecutorFixture(storeEnabled bool) *executorFixture {
	log.Init("DEBUG")
	f := &executorFixture{
		portal:       new(MockPortalClient),
		store:        new(MockStoreClient),
		verifier:     new(MockCredentialVerifier),
		health:       new(MockHealthMonitor),
		compensation: new(MockCompensationService),
	}
	f.executor = NewStrategyExecutor(f.portal, f.store, f.verifier, f.health, f.compensation, storeEnabled)
	return f
}

func signupRequest() model.SignupRequest {
	return model.SignupRequest{
		Email:      "user@example.com",
		Password:   "secret",
		FirstName:  "John",
		LastName:   "Doe",
		AccessMode: model.AccessModeBoth,
	}
}

func portalProfile() *model.Profile {
	return &model.Profile{
		Ref:       model.IdentityRef{PortalID: "p-1"},
		Email:     "user@example.com",
		FirstName: "John",
		LastName:  "Doe",
	}
}

func storeProfile() *model.Profile {
	return &model.Profile{
		Ref:       model.IdentityRef{StoreID: 42},
		Email:     "user@example.com",
		FirstName: "John",
		LastName:  "Doe",
	}
}

func TestExecuteCreateBothHappyPath(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.health.On("StoreReachable").Return(true)
	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(portalProfile(), nil)
	f.store.On("CreateUser", mock.Anything, mock.Anything).
		Return(&storeclient.StoreUser{ID: 42, Email: req.Email}, nil)
	f.portal.On("LinkStoreAccount", mock.Anything, "p-1", int64(42)).Return(nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Equal(t, model.ActionCreated, outcome.Action)
	assert.NotNil(t, outcome.PortalAccount)
	assert.NotNil(t, outcome.StoreAccount)
	assert.Equal(t, "Your account has been created.", outcome.Message)
	assert.Equal(t, "trace-1", outcome.TraceID)
	f.portal.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestExecuteCreateBothDegradesWhenStoreUnreachable(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.health.On("StoreReachable").Return(false)
	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(portalProfile(), nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, pendingSyncNote)
	assert.Nil(t, outcome.StoreAccount)
	f.store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestExecuteCreateBothDuplicateStoreEmailIsFatal(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.health.On("StoreReachable").Return(true)
	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(portalProfile(), nil)
	f.store.On("CreateUser", mock.Anything, mock.Anything).Return(nil, storeclient.ErrDuplicateEmail)
	f.compensation.On("RecordRollbackPending", mock.MatchedBy(func(action compservice.PendingAction) bool {
		return action.Email == req.Email && action.PortalID == "p-1"
	})).Return(&compmodel.CompensationRecord{RecordID: "r-1"}, nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "already exists")
	f.compensation.AssertExpectations(t)
	f.portal.AssertNotCalled(t, "LinkStoreAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteCreateBothLinkFailureStillSucceeds(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.health.On("StoreReachable").Return(true)
	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(portalProfile(), nil)
	f.store.On("CreateUser", mock.Anything, mock.Anything).
		Return(&storeclient.StoreUser{ID: 42, Email: req.Email}, nil)
	f.portal.On("LinkStoreAccount", mock.Anything, "p-1", int64(42)).
		Return(portalclient.ErrDatabaseError)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, pendingSyncNote)
}

func TestExecuteCreateBothStoreOnlyNeverTouchesPortal(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	req.AccessMode = model.AccessModeStoreOnly

	f.health.On("StoreReachable").Return(true)
	f.store.On("CreateUser", mock.Anything, mock.Anything).
		Return(&storeclient.StoreUser{ID: 42, Email: req.Email}, nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Nil(t, outcome.PortalAccount)
	f.portal.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
}

func TestPortalRecoveryLadderSignInAfterDatabaseError(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	req.AccessMode = model.AccessModePortalOnly

	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(nil, portalclient.ErrDatabaseError)
	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).Return(portalProfile(), nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.NotNil(t, outcome.PortalAccount)
	f.portal.AssertNotCalled(t, "UpsertUserAccount", mock.Anything, mock.Anything)
	f.portal.AssertNotCalled(t, "ResetPasswordForEmail", mock.Anything, mock.Anything)
}

func TestPortalRecoveryLadderUpsertAfterSignInFails(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	req.AccessMode = model.AccessModePortalOnly

	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(nil, portalclient.ErrDatabaseError)
	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).Return(nil, portalclient.ErrInvalidLogin)
	f.portal.On("UpsertUserAccount", mock.Anything, mock.Anything).Return(portalProfile(), nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.NotNil(t, outcome.PortalAccount)
	f.portal.AssertNotCalled(t, "ResetPasswordForEmail", mock.Anything, mock.Anything)
}

func TestPortalRecoveryLadderEndsWithPasswordReset(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	req.AccessMode = model.AccessModePortalOnly

	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(nil, portalclient.ErrDatabaseError)
	f.portal.On("SignIn", mock.Anything, req.Email, req.Password).Return(nil, portalclient.ErrInvalidLogin)
	f.portal.On("UpsertUserAccount", mock.Anything, mock.Anything).Return(nil, portalclient.ErrDatabaseError)
	f.portal.On("ResetPasswordForEmail", mock.Anything, req.Email).Return(nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateBoth, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Equal(t, model.ActionRequiresConfirmation, outcome.Action)
	assert.Equal(t, model.NextStepConfirmData, outcome.NextStep)
	f.portal.AssertExpectations(t)
}

func TestExecuteLinkExistingNeverLinksWithoutBothVerifications(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(portalProfile(), nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(nil, ErrInvalidCredentials)

	outcome := f.executor.Execute(context.Background(), model.StrategyLinkExisting, req, model.AccountStatus{}, "trace-1")

	assert.False(t, outcome.Success)
	assert.Equal(t, "Invalid email or password.", outcome.Message)
	f.portal.AssertNotCalled(t, "LinkStoreAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteLinkExistingLinksAfterBothPass(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(portalProfile(), nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(storeProfile(), nil)
	f.portal.On("LinkStoreAccount", mock.Anything, "p-1", int64(42)).Return(nil)
	f.health.On("StoreReachable").Return(true)
	f.store.On("SyncProfile", mock.Anything, int64(42), mock.Anything).Return(nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyLinkExisting, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Equal(t, model.ActionLinked, outcome.Action)
	assert.Equal(t, "Your accounts have been linked.", outcome.Message)
	f.portal.AssertExpectations(t)
}

func TestExecuteResolveConflictsUpdatesPortalBeforeLinking(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	req.Role = "buyer"
	status := model.AccountStatus{
		Conflicts: []model.ConflictRecord{{Field: "name", PortalValue: "Jon Doe", StoreValue: "John Doe"}},
	}

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(portalProfile(), nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(storeProfile(), nil)
	f.portal.On("UpdateUserProfile", mock.Anything, "p-1", mock.MatchedBy(func(u portalclient.ProfileUpdates) bool {
		return u.FirstName == "John" && u.Role == "buyer"
	})).Return(nil)
	f.health.On("StoreReachable").Return(true)
	f.store.On("SyncProfile", mock.Anything, int64(42), mock.Anything).Return(nil)
	f.portal.On("LinkStoreAccount", mock.Anything, "p-1", int64(42)).Return(nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyResolveConflictsAndLink, req, status, "trace-1")

	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, "name, role")
	assert.Equal(t, status.Conflicts, outcome.Conflicts)
	f.portal.AssertExpectations(t)
}

func TestExecuteResolveConflictsPortalUpdateFailureIsFatal(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(portalProfile(), nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(storeProfile(), nil)
	f.portal.On("UpdateUserProfile", mock.Anything, "p-1", mock.Anything).
		Return(portalclient.ErrDatabaseError)

	outcome := f.executor.Execute(context.Background(), model.StrategyResolveConflictsAndLink, req, model.AccountStatus{}, "trace-1")

	assert.False(t, outcome.Success)
	f.portal.AssertNotCalled(t, "LinkStoreAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteCreateStoreLinkPortalRequiresPortalCredentials(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(nil, ErrInvalidCredentials)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreateStoreLinkPortal, req, model.AccountStatus{}, "trace-1")

	assert.False(t, outcome.Success)
	assert.Equal(t, "Invalid email or password.", outcome.Message)
	f.store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestExecuteCreatePortalLinkStoreMigratesStoreUser(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(storeProfile(), nil)
	f.portal.On("SignUp", mock.Anything, mock.Anything).Return(portalProfile(), nil)
	f.portal.On("LinkStoreAccount", mock.Anything, "p-1", int64(42)).Return(nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyCreatePortalLinkStore, req, model.AccountStatus{}, "trace-1")

	assert.True(t, outcome.Success)
	assert.Equal(t, model.ActionCreated, outcome.Action)
	f.portal.AssertExpectations(t)
}

func TestExecuteManualReviewRecordsPendingAction(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	status := model.AccountStatus{PortalKnown: true, PortalExists: true}

	f.compensation.On("RecordManualReview", mock.MatchedBy(func(action compservice.PendingAction) bool {
		return action.Email == req.Email && action.TraceID == "trace-1"
	})).Return(&compmodel.CompensationRecord{RecordID: "r-1"}, nil)

	outcome := f.executor.Execute(context.Background(), model.StrategyManualReview, req, status, "trace-1")

	assert.False(t, outcome.Success)
	assert.Equal(t, model.NextStepCompleteSetup, outcome.NextStep)
	assert.Contains(t, outcome.Message, "team has been notified")
	f.compensation.AssertExpectations(t)
	f.portal.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestExecuteConfirmExistingNeverMutates(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()
	status := model.AccountStatus{
		PortalKnown: true, PortalExists: true, StoreKnown: true,
		Portal: &model.AccountSnapshot{Exists: true, Email: req.Email, Ref: model.IdentityRef{PortalID: "p-1"}},
	}

	outcome := f.executor.Execute(context.Background(), model.StrategyConfirmExistingPortal, req, status, "trace-1")

	assert.True(t, outcome.Success)
	assert.Equal(t, model.ActionConfirmedExisting, outcome.Action)
	assert.Equal(t, model.NextStepLogin, outcome.NextStep)
	f.portal.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	f.portal.AssertNotCalled(t, "LinkStoreAccount", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestExecuteVerificationInfrastructureErrorDegrades(t *testing.T) {
	f := newExecutorFixture(true)
	req := signupRequest()

	f.verifier.On("Verify", mock.Anything, constants.SystemPortal, req.Email, req.Password).
		Return(portalProfile(), nil)
	f.verifier.On("Verify", mock.Anything, constants.SystemStore, req.Email, req.Password).
		Return(nil, storeclient.ErrUnavailable)

	outcome := f.executor.Execute(context.Background(), model.StrategyLinkExisting, req, model.AccountStatus{}, "trace-1")

	assert.False(t, outcome.Success)
	assert.Equal(t, "The service is temporarily unavailable. Please try again later.", outcome.Message)
}
