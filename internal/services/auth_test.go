package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/pkg/config"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/metrics"
	"property-billing/pkg/service"
	"property-billing/pkg/utils"
)

type authFixture struct {
	service AuthServiceInterface
	users   *fakeUserRepo
	cache   *fakeCache
	audit   *fakeAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)

	u := operatorUser(5)
	u.Password = hash
	f := &authFixture{users: newFakeUserRepo(u), cache: newFakeCache(), audit: &fakeAudit{}}
	f.service = NewAuthService(f.users, f.cache, service.NewJWTService("test-secret", testLocation), f.audit,
		metrics.New(nil), zap.NewNop(), config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute})
	return f
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.service.Login(context.Background(), Caller{IP: "10.0.0.1"}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "op", resp.User.Username)
	assert.Equal(t, []string{AuditLogin}, f.audit.operations())
	require.NotNil(t, f.audit.callers[0].User)
	assert.Equal(t, uint64(2), f.audit.callers[0].User.ID)
	assert.Equal(t, "10.0.0.1", f.audit.callers[0].IP)

	user, err := f.service.Authorize(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, 5, user.CommunityNumber)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), Caller{}, dto.LoginDTO{Username: "op", Password: "nope"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = f.service.Login(context.Background(), Caller{}, dto.LoginDTO{Username: "ghost", Password: "nope"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	assert.Empty(t, f.audit.records)
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.Login(ctx, Caller{}, dto.LoginDTO{Username: "op", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
	}

	_, err := f.service.Login(ctx, Caller{}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	assert.Equal(t, http.StatusTooManyRequests, apperrors.StatusCode(err))
	assert.True(t, errors.Is(err, apperrors.ErrTooManyAttempts))
}

func TestLoginResetsAttemptsOnSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _ = f.service.Login(ctx, Caller{}, dto.LoginDTO{Username: "op", Password: "wrong"})
	assert.Equal(t, "1", f.cache.data[loginAttemptsKey("op")])

	_, err := f.service.Login(ctx, Caller{}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotContains(t, f.cache.data, loginAttemptsKey("op"))
}

func TestLoginIgnoresCacheOutage(t *testing.T) {
	f := newAuthFixture(t)
	f.cache.getErr = errors.New("redis down")

	_, err := f.service.Login(context.Background(), Caller{}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	assert.NoError(t, err)
}

func TestAuthorizeRejectsGarbageAndDeletedUser(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Authorize(context.Background(), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))

	resp, err := f.service.Login(context.Background(), Caller{}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	require.NoError(t, err)
	delete(f.users.users, 2)

	_, err = f.service.Authorize(context.Background(), resp.Token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthorizeReturnsLiveFlags(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.service.Login(context.Background(), Caller{}, dto.LoginDTO{Username: "op", Password: "s3cret"})
	require.NoError(t, err)

	f.users.users[2].CanEdit = false
	user, err := f.service.Authorize(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.False(t, user.CanEdit)
	assert.Equal(t, entities.RoleOperator, user.Role)
}
