// Package customers stores checkout customers keyed by email.
package customers

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aaracollective/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// NormalizeEmail lowercases and trims an address before it is used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpsertByEmail creates the customer or, when one exists, refreshes its name.
// A nil or blank name never clears a stored one.
func (r *Repository) UpsertByEmail(ctx context.Context, email string, name *string) (*models.Customer, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("customer email required")
	}

	customer := &models.Customer{Email: normalized}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}
	if name != nil && strings.TrimSpace(*name) != "" {
		trimmed := strings.TrimSpace(*name)
		customer.Name = &trimmed
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}
	}

	if err := r.db.WithContext(ctx).Clauses(onConflict).Create(customer).Error; err != nil {
		return nil, err
	}

	var stored models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
