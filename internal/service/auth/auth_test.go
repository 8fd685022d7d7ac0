package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RevokedToken{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	codec := &tokens.Codec{
		Secret:   []byte("test_secret"),
		Issuer:   "blog_api",
		Audience: "blog_api",
		TTL:      time.Hour,
	}
	return NewService(repo.New(db), codec, events.NewProducer(nil))
}

func TestRegisterIssuesToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "pw1", Role: models.RoleUser})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, models.RoleUser, res.Value.Role)

	claims, err := s.Codec.Parse(res.Value.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "pw1", Role: models.RoleUser})
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "pw2", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusConflict, res.Status)
	require.Equal(t, "Username already exists.", res.ErrMessage)
}

func TestRegisterDefaultsAndValidatesRole(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, models.RoleUser, res.Value.Role)

	res, err = s.Register(ctx, RegisterUserCommand{Username: "bob", Password: "pw", Role: "superuser"})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusBadRequest, res.Status)
}

func TestLoginSuccess(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "password", Role: models.RoleAdmin})
	require.NoError(t, err)

	res, err := s.Login(ctx, LoginUserCommand{Username: "alice", Password: "password"})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, models.RoleAdmin, res.Value.Role)

	claims, err := s.Codec.Parse(res.Value.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

// A wrong password and a nonexistent user must be indistinguishable.
func TestLoginFailureMessagesMatch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "password", Role: models.RoleUser})
	require.NoError(t, err)

	wrongPassword, err := s.Login(ctx, LoginUserCommand{Username: "alice", Password: "wrongpw"})
	require.NoError(t, err)
	require.False(t, wrongPassword.OK)
	require.Equal(t, dispatch.StatusUnauthorized, wrongPassword.Status)

	noSuchUser, err := s.Login(ctx, LoginUserCommand{Username: "bob", Password: "wrong"})
	require.NoError(t, err)
	require.False(t, noSuchUser.OK)
	require.Equal(t, dispatch.StatusUnauthorized, noSuchUser.Status)

	require.Equal(t, wrongPassword.ErrMessage, noSuchUser.ErrMessage)
	require.Equal(t, "Invalid username or password", noSuchUser.ErrMessage)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	reg, err := s.Register(ctx, RegisterUserCommand{Username: "alice", Password: "pw", Role: models.RoleUser})
	require.NoError(t, err)
	token := reg.Value.Token

	res, err := s.Logout(ctx, LogoutUserCommand{Token: token})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, "Logged out successfully.", res.Value)

	revoked, err := s.Repo.IsRevoked(ctx, token)
	require.NoError(t, err)
	require.True(t, revoked)

	// the token still parses; revocation is an independent check
	_, err = s.Codec.Parse(token)
	require.NoError(t, err)
}

func TestLogoutAcceptsArbitraryStrings(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Logout(ctx, LogoutUserCommand{Token: "never-a-valid-token"})
	require.NoError(t, err)
	require.True(t, res.OK)

	// twice is fine too
	res, err = s.Logout(ctx, LogoutUserCommand{Token: "never-a-valid-token"})
	require.NoError(t, err)
	require.True(t, res.OK)

	revoked, err := s.Repo.IsRevoked(ctx, "never-a-valid-token")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestHandlersDispatch(t *testing.T) {
	s := newTestService(t)
	d := dispatch.New()
	s.RegisterHandlers(d)
	ctx := context.Background()

	res, err := dispatch.Send[RegisterUserCommand, AuthResponse](ctx, d, RegisterUserCommand{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.True(t, res.OK)

	login, err := dispatch.Send[LoginUserCommand, AuthResponse](ctx, d, LoginUserCommand{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.True(t, login.OK)

	logout, err := dispatch.Send[LogoutUserCommand, string](ctx, d, LogoutUserCommand{Token: login.Value.Token})
	require.NoError(t, err)
	require.True(t, logout.OK)
}
