package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

const avatarPrefix = "users"

// UserService reads user profiles and manages avatars.
type UserService struct {
	db     *gorm.DB
	store  storage.ImageStore
	logger logrus.FieldLogger
	presenter
}

func NewUserService(db *gorm.DB, store storage.ImageStore, logger logrus.FieldLogger) *UserService {
	return &UserService{db: db, store: store, logger: logger, presenter: presenter{store: store}}
}

func (s *UserService) find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Get returns user id as seen by viewerID (0 for anonymous).
func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	subscribed, err := subscribedTo(ctx, s.db, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}

	resp := s.user(user, subscribed.Contains(id))
	return &resp, nil
}

// List returns a page of users ordered by id.
func (s *UserService) List(ctx context.Context, viewerID uint, limit, offset int) ([]types.UserResponse, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := subscribedTo(ctx, s.db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	results := make([]types.UserResponse, len(users))
	for i := range users {
		results[i] = s.user(&users[i], subscribed.Contains(users[i].ID))
	}
	return results, count, nil
}

// SetAvatar decodes a data URI and makes it the avatar of userID, replacing
// any previous one.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", fieldError("avatar", err.Error())
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return "", err
	}

	key, err := s.store.Save(ctx, avatarPrefix, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", key).Error; err != nil {
		s.removeImage(ctx, key)
		return "", err
	}
	s.removeImage(ctx, previous)

	return s.store.URL(key), nil
}

// DeleteAvatar clears the avatar of userID.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if user.Avatar == "" {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return err
	}
	s.removeImage(ctx, user.Avatar)
	return nil
}

func (s *UserService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to delete image")
	}
}
