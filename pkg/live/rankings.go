package live

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PushRankings stores a ranking export and drops the cached boards
func (s *Store) PushRankings(ctx context.Context, rankings Rankings) (*RankingSnapshot, error) {
	snapshot := &RankingSnapshot{Data: datatypes.NewJSONType(rankings)}
	if err := s.DB.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to store rankings: %w", err)
	}
	s.InvalidateBoards()
	return snapshot, nil
}

// LatestRankings returns the most recent ranking export
func (s *Store) LatestRankings(ctx context.Context) (*RankingSnapshot, error) {
	var snapshot RankingSnapshot
	err := s.DB.WithContext(ctx).Order("timestamp DESC").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
