package cloudinary

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/cardswap-api/internal/config"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
)

// cardsFolder папка для изображений карт
const cardsFolder = "cards"

// ErrNotConfigured Cloudinary не настроен (нет cloud name, ключа или секрета)
var ErrNotConfigured = errors.New("cloudinary is not configured")

// UploadParams параметры подписанной загрузки изображения карты
type UploadParams struct {
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"api_key"`
	CloudName    string `json:"cloud_name"`
	Folder       string `json:"folder"`
	PublicID     string `json:"public_id"`
	UploadPreset string `json:"upload_preset,omitempty"`
	ImageURL     string `json:"image_url"`
}

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg    config.CloudinaryConfig
	client *cld.Cloudinary
	now    func() time.Time
	log    *logger.Logger
}

// NewCloudinaryService создает новый экземпляр CloudinaryService.
// Без учётных данных сервис создаётся, но выдача параметров возвращает ErrNotConfigured.
func NewCloudinaryService(cfg config.CloudinaryConfig, log *logger.Logger) (*CloudinaryService, error) {
	if log == nil {
		log = logger.NewDefault("cloudinary")
	}
	s := &CloudinaryService{cfg: cfg, now: time.Now, log: log}
	if !s.Configured() {
		log.Warn("Cloudinary не настроен, загрузка изображений отключена")
		return s, nil
	}

	client, err := cld.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Cloudinary: %w", err)
	}
	client.Config.URL.Secure = true
	s.client = client
	return s, nil
}

// Configured сообщает, заданы ли учётные данные
func (s *CloudinaryService) Configured() bool {
	return s.cfg.CloudName != "" && s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

// UploadParams подписывает параметры загрузки одного изображения.
// Пустой publicID заменяется случайным UUID.
func (s *CloudinaryService) UploadParams(publicID string) (*UploadParams, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		publicID = uuid.New().String()
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", cardsFolder)
	params.Set("public_id", publicID)
	if s.cfg.UploadPreset != "" {
		params.Set("upload_preset", s.cfg.UploadPreset)
	}

	signature, err := api.SignParameters(params, s.cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи параметров: %w", err)
	}

	imageURL, err := s.ImageURL(cardsFolder + "/" + publicID)
	if err != nil {
		return nil, err
	}

	return &UploadParams{
		Timestamp:    timestamp,
		Signature:    signature,
		APIKey:       s.cfg.APIKey,
		CloudName:    s.cfg.CloudName,
		Folder:       cardsFolder,
		PublicID:     publicID,
		UploadPreset: s.cfg.UploadPreset,
		ImageURL:     imageURL,
	}, nil
}

// ImageURL строит https-ссылку на изображение по public_id
func (s *CloudinaryService) ImageURL(publicID string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	img, err := s.client.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("ошибка построения ссылки: %w", err)
	}
	return img.String()
}

// GenerateUploadParams отдаёт администратору параметры загрузки изображения карты
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	params, err := s.UploadParams(c.Query("public_id"))
	if errors.Is(err, ErrNotConfigured) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Загрузка изображений не настроена"})
	}
	if err != nil {
		s.log.WithError(err).Error("ошибка генерации параметров загрузки")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
	}
	return c.JSON(params)
}
