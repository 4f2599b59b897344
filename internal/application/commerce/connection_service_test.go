package commerce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/commerce"
)

// MockAuthorizer is a mock implementation of Authorizer
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) AuthorizationURL() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthorizer) Exchange(ctx context.Context, code, state string) (*commerce.Credential, error) {
	args := m.Called(ctx, code, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Credential), args.Error(1)
}

func (m *MockAuthorizer) Revoke(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCredentialRepository is a mock implementation of CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Get(ctx context.Context) (*commerce.Credential, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, credential *commerce.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockShopResolver is a mock implementation of ShopResolver
type MockShopResolver struct {
	mock.Mock
}

func (m *MockShopResolver) ShopID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestConnectionService_Connect(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)

	authorizer.On("AuthorizationURL").
		Return("https://www.etsy.com/oauth/connect?state=abc", "abc", nil)

	svc := NewConnectionService(authorizer, nil, credentials, zap.NewNop())
	resp, err := svc.Connect()

	require.NoError(t, err)
	assert.Equal(t, "abc", resp.State)
	assert.Contains(t, resp.AuthorizationURL, "oauth/connect")
}

func TestConnectionService_Callback(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)
	shops := new(MockShopResolver)

	credential := commerce.NewCredential("access", "refresh", "Bearer", "transactions_r", time.Hour)
	credential.AttachShop(777, "SpellWorks")

	authorizer.On("Exchange", mock.Anything, "code-1", "state-1").Return(credential, nil)
	shops.On("ShopID", mock.Anything).Return(int64(777), nil)
	credentials.On("Get", mock.Anything).Return(credential, nil)

	svc := NewConnectionService(authorizer, shops, credentials, zap.NewNop())
	status, err := svc.Callback(context.Background(), "code-1", "state-1")

	require.NoError(t, err)
	assert.True(t, status.Connected)
	require.NotNil(t, status.ShopID)
	assert.Equal(t, int64(777), *status.ShopID)
	assert.Equal(t, "SpellWorks", status.ShopName)
}

func TestConnectionService_Callback_ShopLookupFailureKeepsConnection(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)
	shops := new(MockShopResolver)

	credential := commerce.NewCredential("access", "refresh", "Bearer", "transactions_r", time.Hour)

	authorizer.On("Exchange", mock.Anything, "code-1", "state-1").Return(credential, nil)
	shops.On("ShopID", mock.Anything).Return(int64(0), commerce.ErrUpstreamUnavailable)
	credentials.On("Get", mock.Anything).Return(credential, nil)

	svc := NewConnectionService(authorizer, shops, credentials, zap.NewNop())
	status, err := svc.Callback(context.Background(), "code-1", "state-1")

	require.NoError(t, err)
	assert.True(t, status.Connected)
}

func TestConnectionService_Callback_BadState(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)

	authorizer.On("Exchange", mock.Anything, "code-1", "bogus").
		Return(nil, commerce.ErrStateMismatch)

	svc := NewConnectionService(authorizer, nil, credentials, zap.NewNop())
	_, err := svc.Callback(context.Background(), "code-1", "bogus")

	assert.ErrorIs(t, err, commerce.ErrStateMismatch)
}

func TestConnectionService_Status_NotConnected(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)

	credentials.On("Get", mock.Anything).Return(nil, commerce.ErrNotConnected)

	svc := NewConnectionService(authorizer, nil, credentials, zap.NewNop())
	status, err := svc.Status(context.Background())

	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Nil(t, status.ShopID)
}

func TestConnectionService_Disconnect(t *testing.T) {
	authorizer := new(MockAuthorizer)
	credentials := new(MockCredentialRepository)

	authorizer.On("Revoke", mock.Anything).Return(nil)

	svc := NewConnectionService(authorizer, nil, credentials, zap.NewNop())
	assert.NoError(t, svc.Disconnect(context.Background()))
	authorizer.AssertExpectations(t)
}
