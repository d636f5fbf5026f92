package session

import (
	"context"
	"testing"
	"time"

	"github.com/bda-portal/identity-reconciliation-service/internal/reconcile/model"
	storeclient "github.com/bda-portal/identity-reconciliation-service/internal/store/client"
	"github.com/bda-portal/identity-reconciliation-service/internal/system/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

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

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "p-1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	assert.NoError(t, err)
	return signed
}

func TestSyncSessionCreatesStoreSession(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	synced := make(chan struct{}, 1)
	store.On("CreateSession", mock.Anything, int64(42)).
		Run(func(args mock.Arguments) { synced <- struct{}{} }).
		Return(nil)

	sync := NewSessionSynchronizer(store)
	sync.SyncSession(&model.Profile{
		Ref:   model.IdentityRef{PortalID: "p-1", StoreID: 42},
		Email: "user@example.com",
	})

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("store session was never created")
	}
	store.AssertExpectations(t)
}

func TestSyncSessionSkipsUnlinkedProfiles(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	sync := NewSessionSynchronizer(store)

	sync.SyncSession(nil)
	sync.SyncSession(&model.Profile{Ref: model.IdentityRef{PortalID: "p-1"}})

	time.Sleep(50 * time.Millisecond)
	store.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestSyncSessionSkipsExpiredPortalToken(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	sync := NewSessionSynchronizer(store)

	sync.SyncSession(&model.Profile{
		Ref:         model.IdentityRef{PortalID: "p-1", StoreID: 42},
		AccessToken: signedToken(t, time.Now().Add(-1*time.Hour)),
	})

	time.Sleep(50 * time.Millisecond)
	store.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestSyncSessionAcceptsUnexpiredPortalToken(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	synced := make(chan struct{}, 1)
	store.On("CreateSession", mock.Anything, int64(42)).
		Run(func(args mock.Arguments) { synced <- struct{}{} }).
		Return(nil)

	sync := NewSessionSynchronizer(store)
	sync.SyncSession(&model.Profile{
		Ref:         model.IdentityRef{PortalID: "p-1", StoreID: 42},
		AccessToken: signedToken(t, time.Now().Add(1*time.Hour)),
	})

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("store session was never created")
	}
}

func TestSyncSessionTreatsOpaqueTokenAsUsable(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	synced := make(chan struct{}, 1)
	store.On("CreateSession", mock.Anything, int64(42)).
		Run(func(args mock.Arguments) { synced <- struct{}{} }).
		Return(nil)

	sync := NewSessionSynchronizer(store)
	sync.SyncSession(&model.Profile{
		Ref:         model.IdentityRef{PortalID: "p-1", StoreID: 42},
		AccessToken: "not-a-jwt",
	})

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("store session was never created")
	}
}

func TestSyncSessionRetriesTransientFailures(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	synced := make(chan struct{}, 1)
	store.On("CreateSession", mock.Anything, int64(42)).
		Return(errors.New("store hiccup")).Once()
	store.On("CreateSession", mock.Anything, int64(42)).
		Run(func(args mock.Arguments) { synced <- struct{}{} }).
		Return(nil)

	sync := NewSessionSynchronizer(store)
	sync.SyncSession(&model.Profile{Ref: model.IdentityRef{PortalID: "p-1", StoreID: 42}})

	select {
	case <-synced:
	case <-time.After(5 * time.Second):
		t.Fatal("session sync was not retried")
	}
	store.AssertNumberOfCalls(t, "CreateSession", 2)
}

func TestMirrorLogoutEndsStoreSession(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	done := make(chan struct{}, 1)
	store.On("Logout", mock.Anything, int64(42)).
		Run(func(args mock.Arguments) { done <- struct{}{} }).
		Return(nil)

	sync := NewSessionSynchronizer(store)
	sync.MirrorLogout(42)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store logout was never mirrored")
	}
}

func TestMirrorLogoutSkipsZeroStoreID(t *testing.T) {
	log.Init("DEBUG")
	store := new(MockStoreClient)
	sync := NewSessionSynchronizer(store)

	sync.MirrorLogout(0)

	time.Sleep(50 * time.Millisecond)
	store.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}
