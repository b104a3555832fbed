package live

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNoSnapshot is returned when nothing was pushed yet
var ErrNoSnapshot = errors.New("no snapshot available")

// PushStatus stores a new server status report
func (s *Store) PushStatus(ctx context.Context, status *StatusSnapshot) error {
	if err := s.DB.WithContext(ctx).Create(status).Error; err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}
	return nil
}

// LatestStatus returns the most recent status report
func (s *Store) LatestStatus(ctx context.Context) (*StatusSnapshot, error) {
	var status StatusSnapshot
	err := s.DB.WithContext(ctx).Order("timestamp DESC").First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}
