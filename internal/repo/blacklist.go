package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/blog_api/internal/models"
)

// Revoke records a token as revoked. Re-revoking the same string is a no-op:
// the insert skips on conflict, so callers never see a duplicate-key error.
// The write is synchronous; when Revoke returns nil the revocation is durable.
func (r *GormRepo) Revoke(ctx context.Context, token string) error {
	rec := models.RevokedToken{
		Token:     token,
		RevokedAt: time.Now().UTC(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
}

func (r *GormRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
