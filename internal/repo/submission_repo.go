package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CoolAssPuppy/landing-pages/internal/domain"
)

// CreateSubmission inserts s, assigning an ID and UTC timestamp when unset.
func CreateSubmission(ctx context.Context, db *gorm.DB, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}
