package auth

import (
	"context"
	"errors"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

// A single undifferentiated message for "no such user" and "wrong password",
// so a caller cannot probe which usernames exist.
const msgInvalidCredentials = "Invalid username or password"

const msgUsernameTaken = "Username already exists."

type RegisterUserCommand struct {
	Username string
	Password string
	Role     string
}

type LoginUserCommand struct {
	Username string
	Password string
}

type LogoutUserCommand struct {
	Token string
}

type AuthResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Service holds the login/register/logout transitions. All state lives in
// the collaborators passed to NewService.
type Service struct {
	Repo     *repo.GormRepo
	Codec    *tokens.Codec
	Producer *events.Producer
}

func NewService(r *repo.GormRepo, codec *tokens.Codec, producer *events.Producer) *Service {
	return &Service{Repo: r, Codec: codec, Producer: producer}
}

func (s *Service) RegisterHandlers(d *dispatch.Dispatcher) {
	dispatch.Register(d, s.Register)
	dispatch.Register(d, s.Login)
	dispatch.Register(d, s.Logout)
}

func (s *Service) Register(ctx context.Context, cmd RegisterUserCommand) (dispatch.Result[AuthResponse], error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	role := cmd.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		l.Warn("register_failed", "status", 400, "reason", "unknown_role")
		return dispatch.Failure[AuthResponse](dispatch.StatusBadRequest, "Unknown role."), nil
	}

	pwHash, err := hash.HashPassword(cmd.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return dispatch.Result[AuthResponse]{}, err
	}

	user := models.User{
		Username:     cmd.Username,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			l.Warn("register_failed", "status", 409, "reason", "username_taken")
			return dispatch.Failure[AuthResponse](dispatch.StatusConflict, msgUsernameTaken), nil
		}
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return dispatch.Result[AuthResponse]{}, err
	}

	token, err := s.Codec.Issue(user.Username, user.Role)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot create token", "error", err)
		return dispatch.Result[AuthResponse]{}, err
	}

	s.publish(ctx, "user_registered", user.Username)
	l.Info("register_success")
	return dispatch.Success(AuthResponse{Token: token, Role: user.Role}), nil
}

func (s *Service) Login(ctx context.Context, cmd LoginUserCommand) (dispatch.Result[AuthResponse], error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
			return dispatch.Failure[AuthResponse](dispatch.StatusUnauthorized, msgInvalidCredentials), nil
		}
		l.Error("login_failed", "status", 500, "reason", "db_error", "error", err)
		return dispatch.Result[AuthResponse]{}, err
	}

	if !hash.CheckPassword(user.PasswordHash, cmd.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return dispatch.Failure[AuthResponse](dispatch.StatusUnauthorized, msgInvalidCredentials), nil
	}

	token, err := s.Codec.Issue(user.Username, user.Role)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return dispatch.Result[AuthResponse]{}, err
	}

	s.publish(ctx, "user_logged_in", user.Username)
	l.Info("login_success")
	return dispatch.Success(AuthResponse{Token: token, Role: user.Role}), nil
}

// Logout blacklists the token string as handed in, without verifying it was
// ever validly issued. Revoking garbage is harmless: it could never
// authenticate anyway. The ledger insert completes before Logout returns.
func (s *Service) Logout(ctx context.Context, cmd LogoutUserCommand) (dispatch.Result[string], error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Repo.Revoke(ctx, cmd.Token); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke token", "error", err)
		return dispatch.Result[string]{}, err
	}

	subject := "unknown"
	if claims, err := s.Codec.Parse(cmd.Token); err == nil {
		subject = claims.Subject
	}
	s.publish(ctx, "user_logged_out", subject)
	l.Info("logout_success")
	return dispatch.Success("Logged out successfully."), nil
}

func (s *Service) publish(ctx context.Context, eventType, username string) {
	event := map[string]interface{}{
		"type":     eventType,
		"username": username,
	}
	if err := s.Producer.PublishEvent(ctx, "user_events", username, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
