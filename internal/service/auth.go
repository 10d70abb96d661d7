package service

import (
	"context"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/api"
	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/guard"
	"github.com/delacruzpj/deskhub_client/internal/models"
	"github.com/delacruzpj/deskhub_client/internal/session"
)

// AuthAPI defines the backend account operations the auth service needs.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*models.Session, error)
	Signup(ctx context.Context, req api.SignupRequest) (*models.Session, error)
	UpdateProfile(ctx context.Context, token, userID string, req api.UpdateProfileRequest) (*models.Session, error)
	ChangePassword(ctx context.Context, token, userID, password string) (*models.Session, error)
}

// AuthService handles login, signup, and credential updates, installing
// each successful result as the client's session.
type AuthService struct {
	auth     AuthAPI
	sessions *session.Manager
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewAuthService(auth AuthAPI, sessions *session.Manager, logger *logrus.Logger) *AuthService {
	return &AuthService{
		auth:     auth,
		sessions: sessions,
		logger:   logger,
		validate: validator.New(),
	}
}

// Login exchanges credentials for a session and installs it. An AuthError
// from the backend is propagated as-is, never retried here.
func (s *AuthService) Login(ctx context.Context, contactNum, password string) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Login",
	})

	req := api.LoginRequest{ContactNum: contactNum, Password: password}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	sess, err := s.auth.Login(ctx, req)
	if err != nil {
		log.WithError(err).Warn("Login rejected")
		return nil, err
	}

	if err := s.sessions.Replace(ctx, sess); err != nil {
		return nil, fmt.Errorf("service: install session: %w", err)
	}
	log.WithField("role", sess.Identity.Role).Info("Logged in")
	return sess, nil
}

// Signup registers a new account and installs the returned session.
func (s *AuthService) Signup(ctx context.Context, req api.SignupRequest) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Signup",
	})

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if len(req.ValidID.Content) == 0 {
		return nil, &apperrors.ValidationError{Field: "ValidID", Message: "a valid ID scan is required"}
	}
	if err := checkPasswordStrength(req.Password); err != nil {
		return nil, err
	}

	sess, err := s.auth.Signup(ctx, req)
	if err != nil {
		log.WithError(err).Warn("Signup rejected")
		return nil, err
	}

	if err := s.sessions.Replace(ctx, sess); err != nil {
		return nil, fmt.Errorf("service: install session: %w", err)
	}
	log.WithField("role", sess.Identity.Role).Info("Account created")
	return sess, nil
}

// Logout clears the session and returns the route the client must navigate
// to afterwards.
func (s *AuthService) Logout(ctx context.Context) (string, error) {
	if err := s.sessions.Logout(ctx); err != nil {
		return "", err
	}
	return guard.RouteLogin, nil
}

// UpdateProfile replaces the account's profile fields and refreshes the
// stored session record with the backend's response.
func (s *AuthService) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.Session, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	updated, err := s.auth.UpdateProfile(ctx, sess.Token, sess.Identity.ID, req)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Replace(ctx, updated); err != nil {
		return nil, fmt.Errorf("service: install session: %w", err)
	}
	return updated, nil
}

// ChangePassword validates and submits a new credential, then refreshes the
// stored session record.
func (s *AuthService) ChangePassword(ctx context.Context, newPassword, confirm string) error {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return ErrNotLoggedIn
	}

	if newPassword != confirm {
		return &apperrors.ValidationError{Field: "confirm", Message: "passwords do not match"}
	}
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}

	updated, err := s.auth.ChangePassword(ctx, sess.Token, sess.Identity.ID, newPassword)
	if err != nil {
		return err
	}
	if err := s.sessions.Replace(ctx, updated); err != nil {
		return fmt.Errorf("service: install session: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "ChangePassword",
	}).Info("Password changed")
	return nil
}

// checkPasswordStrength requires at least 8 characters with an uppercase
// letter, a lowercase letter, a digit, and a symbol.
func checkPasswordStrength(password string) error {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if len(password) < 8 || !upper || !lower || !digit || !symbol {
		return &apperrors.ValidationError{
			Field:   "password",
			Message: "must be at least 8 characters and include uppercase, lowercase, number, and symbol",
		}
	}
	return nil
}
