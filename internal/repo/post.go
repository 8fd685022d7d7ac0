package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrFriendlyURLTaken = errors.New("friendly url already exists")
)

func (r *GormRepo) CreatePost(ctx context.Context, p *models.Post) error {
	exists, err := r.FriendlyURLExists(ctx, p.FriendlyURL)
	if err != nil {
		return err
	}
	if exists {
		return ErrFriendlyURLTaken
	}
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrFriendlyURLTaken
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *GormRepo) UpdatePost(ctx context.Context, p *models.Post) error {
	if err := r.DB.WithContext(ctx).Save(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrFriendlyURLTaken
		}
		return err
	}
	return nil
}

func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	tx := r.DB.WithContext(ctx).Delete(&models.Post{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *GormRepo) ListPosts(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := r.DB.WithContext(ctx).
		Order("date_created DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *GormRepo) FriendlyURLExists(ctx context.Context, friendlyURL string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).
		Where("friendly_url = ?", friendlyURL).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
