package authprovider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

func (r *repository) findByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) findByID(ctx context.Context, id uuid.UUID) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// createWithProfile inserts the credentials row and the matching profile in tx.
func createWithProfile(tx *gorm.DB, user *models.AuthUser, fullName string) error {
	if err := tx.Create(user).Error; err != nil {
		return err
	}
	return tx.Create(&models.Profile{ID: user.ID, FullName: fullName}).Error
}

func (r *repository) markConfirmed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AuthUser{}).
		Where("id = ?", id).
		Update("email_confirmed_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) touchLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AuthUser{}).
		Where("id = ?", id).
		Update("last_sign_in_at", at).Error
}
