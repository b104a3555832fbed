package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RecordBuild appends a pipeline run to the build history
func (s *Store) RecordBuild(ctx context.Context, build *Build) error {
	if build.Date.IsZero() {
		build.Date = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(build).Error; err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// LastBuild returns the latest build, nil when the pipeline never ran
func (s *Store) LastBuild(ctx context.Context) (*Build, error) {
	return lastBuild(s.DB.WithContext(ctx))
}

// LastCompleteBuild returns the latest build without failures
func (s *Store) LastCompleteBuild(ctx context.Context) (*Build, error) {
	return lastBuild(s.DB.WithContext(ctx).Where("complete = ?", true))
}

func lastBuild(query *gorm.DB) (*Build, error) {
	var build Build
	err := query.Order("date DESC").First(&build).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &build, nil
}

// NextBuild is the time left before a rebuild is due, 0 when it is already due
func (s *Store) NextBuild(ctx context.Context, interval time.Duration) (time.Duration, error) {
	last, err := s.LastBuild(ctx)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return max(time.Until(last.Date.Add(interval)), 0), nil
}
