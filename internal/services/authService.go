package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/mailer"
	"github.com/arzan03/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// VerifyPassword compares a plain password with a hashed password
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TokenIssuer signs and verifies HS256 bearer tokens carrying user id and role.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) Generate(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Parse(tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Actor{}, apperror.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, apperror.Unauthorized("invalid token claims")
	}
	userID, okID := claims["user_id"].(string)
	role, okRole := claims["role"].(string)
	if !okID || !okRole {
		return Actor{}, apperror.Unauthorized("invalid token payload")
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return Actor{}, apperror.Unauthorized("invalid token payload")
	}
	return Actor{UserID: id, Role: role}, nil
}

type AuthService struct {
	users       UserStore
	tokens      *TokenIssuer
	notifier    Notifier
	frontendURL string
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenIssuer, notifier Notifier, frontendURL string, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a customer account and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !validEmail(in.Email) {
		return nil, apperror.BadRequest("email is invalid")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	now := s.now()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Role:      models.RoleCustomer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperror.Conflict("email already in use")
		}
		return nil, apperror.Internal(err, "failed to create user")
	}

	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, apperror.Internal(err, "failed to load user")
	}
	if !VerifyPassword(in.Password, user.Password) {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is disabled")
	}

	return s.session(user)
}

func (s *AuthService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err, "failed to load user")
	}
	return user, nil
}

// MakeAdmin promotes the account registered under email.
func (s *AuthService) MakeAdmin(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.BadRequest("email is required")
	}

	user, err := s.users.SetRole(ctx, email, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err, "failed to update role")
	}
	s.log.WithField("user_id", user.ID.Hex()).Info("user promoted to admin")
	return user, nil
}

// ForgotPassword emails a reset link when the account exists. It never reports
// whether it did, so callers always answer the same way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.WithError(err).Error("forgot password lookup failed")
		}
		return
	}
	if !user.IsActive {
		return
	}

	token, err := randomToken()
	if err != nil {
		s.log.WithError(err).Error("failed to generate reset token")
		return
	}
	if err := s.users.SetResetToken(ctx, user.ID, hashToken(token), s.now().Add(resetTokenTTL)); err != nil {
		s.log.WithError(err).Error("failed to store reset token")
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, url.QueryEscape(token))
	s.notifier.Notify(mailer.PasswordReset(*user, link))
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := validateStruct(in); err != nil {
		return err
	}

	user, err := s.users.FindByResetToken(ctx, hashToken(in.Token), s.now())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperror.BadRequest("invalid or expired reset token")
		}
		return apperror.Internal(err, "failed to load user")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return apperror.Internal(err, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.Internal(err, "failed to update password")
	}
	return nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, apperror.Internal(err, "failed to sign token")
	}
	return &Session{Token: token, User: user}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return hex.EncodeToString(buf), nil
}

// hashToken is the form of a reset token stored on the user.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
