package services

import (
	"context"
	"fmt"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// SiteSettingsService resolves the effective site settings: overrides from
// the environment first, then the stored values, then defaults.
type SiteSettingsService struct {
	repo      repository.CatalogRepository
	overrides models.Settings
	defaults  models.Settings
}

func NewSiteSettingsService(repo repository.CatalogRepository, overrides, defaults models.Settings) *SiteSettingsService {
	return &SiteSettingsService{repo: repo, overrides: overrides, defaults: defaults}
}

// Get never returns an empty result; on a storage error the overrides and
// defaults are returned along with the error.
func (s *SiteSettingsService) Get(ctx context.Context) (models.Settings, error) {
	stored, err := s.repo.GetSettings(ctx)
	if err != nil {
		return s.overrides.Merge(s.defaults), fmt.Errorf("failed to load settings: %w", err)
	}
	return s.overrides.Merge(*stored).Merge(s.defaults), nil
}
