package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	minNameLen     = 2
)

// AuthService – регистрация, вход и профиль текущего пользователя
type AuthService struct {
	store      store.Store
	jwtService *utils.JWTService
	log        *logger.Logger
}

// NewAuthService – конструктор AuthService
func NewAuthService(st store.Store, jwtService *utils.JWTService, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthService{
		store:      st,
		jwtService: jwtService,
		log:        log,
	}
}

// JWT возвращает сервис токенов, которым подписываются сессии
func (s *AuthService) JWT() *utils.JWTService {
	return s.jwtService
}

// RegisterInput данные регистрации
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput данные входа
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session ответ на регистрацию и вход
type Session struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func (in *RegisterInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if utf8.RuneCountInString(in.Username) < minUsernameLen {
		return apperrors.InvalidArgument(fmt.Sprintf("Имя пользователя должно быть не короче %d символов", minUsernameLen))
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return apperrors.InvalidArgument(fmt.Sprintf("Пароль должен быть не короче %d символов", minPasswordLen))
	}
	if utf8.RuneCountInString(in.Name) < minNameLen {
		return apperrors.InvalidArgument(fmt.Sprintf("Имя должно быть не короче %d символов", minNameLen))
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.InvalidArgument("Некорректный email")
	}
	return nil
}

// Register создаёт пользователя и выдаёт токен.
// Email сравнивается без учёта регистра, username точно.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Name:     in.Name,
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.FindUserByEmail(ctx, in.Email); err == nil {
			return apperrors.Conflict("Пользователь с таким email уже существует")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.FindUserByUsername(ctx, in.Username); err == nil {
			return apperrors.Conflict("Имя пользователя уже занято")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.CreateUser(ctx, user)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperrors.Conflict("Пользователь уже существует")
	}
	if err != nil {
		if apperrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("пользователь зарегистрирован")
	return s.session(user)
}

// Login проверяет email и пароль и выдаёт токен
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperrors.InvalidArgument("Пароль обязателен")
	}

	var user *models.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.FindUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("Неверный email или пароль")
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if !utils.CheckPassword(user.Password, in.Password) {
		s.log.WithField("user_id", user.ID).Debug("неверный пароль")
		return nil, apperrors.Unauthorized("Неверный email или пароль")
	}
	return s.session(user)
}

// Me возвращает публичный профиль пользователя
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.PublicUser, error) {
	var user *models.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, userID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Пользователь не найден")
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return &Session{User: user.Public(), Token: token}, nil
}
