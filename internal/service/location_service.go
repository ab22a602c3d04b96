package service

import (
	"context"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/rs/zerolog"
)

type LocationService struct {
	locations domain.LocationRepository
	profiles  domain.ProfileRepository
	tours     domain.TourRepository
	logger    *zerolog.Logger
}

func NewLocationService(locations domain.LocationRepository, profiles domain.ProfileRepository, tours domain.TourRepository, logger *zerolog.Logger) *LocationService {
	return &LocationService{locations: locations, profiles: profiles, tours: tours, logger: logger}
}

func (s *LocationService) List(ctx context.Context) ([]*models.Wilaya, error) {
	return s.locations.ListWilayas(ctx)
}

func (s *LocationService) Get(ctx context.Context, id int64) (*models.Wilaya, error) {
	return s.locations.GetWilaya(ctx, id)
}

// Guides lists verified guides covering the wilaya.
func (s *LocationService) Guides(ctx context.Context, id int64) ([]*models.GuideProfile, error) {
	if _, err := s.locations.GetWilaya(ctx, id); err != nil {
		return nil, err
	}
	return s.profiles.ListGuides(ctx, models.GuideFilter{WilayaID: id})
}

// Tours lists the public tours located in the wilaya.
func (s *LocationService) Tours(ctx context.Context, id int64) ([]*models.Tour, error) {
	if _, err := s.locations.GetWilaya(ctx, id); err != nil {
		return nil, err
	}
	return s.tours.ListTours(ctx, models.TourFilter{WilayaID: id, PublicOnly: true})
}

// Sync upserts reference wilayas by code.
func (s *LocationService) Sync(ctx context.Context, wilayas []models.Wilaya) error {
	created, updated, err := s.locations.SyncWilayas(ctx, wilayas)
	if err != nil {
		return err
	}
	s.logger.Info().Int("created", created).Int("updated", updated).Msg("Wilayas synchronized")
	return nil
}
