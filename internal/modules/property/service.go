package property

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	maxCaptionLen        = 255
	maxImagesPerProperty = 10
)

// Service defines the business logic of listings, facilities, images and favorites.
type Service interface {
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Get(ctx context.Context, id int64) (*Property, error)
	Create(ctx context.Context, ownerID string, input Input) (*Property, error)
	Update(ctx context.Context, ownerID string, id int64, patch Patch) (*Property, error)
	Delete(ctx context.Context, ownerID string, id int64) error

	ListFacilities(ctx context.Context) ([]Facility, error)
	AddFacility(ctx context.Context, ownerID string, propertyID, facilityID int64) error
	RemoveFacility(ctx context.Context, ownerID string, propertyID, facilityID int64) error

	AddImage(ctx context.Context, ownerID string, propertyID int64, imageURL string, caption *string) (*Image, error)
	DeleteImage(ctx context.Context, ownerID string, propertyID, imageID int64) error
	UpdateImageCaption(ctx context.Context, ownerID string, propertyID, imageID int64, caption string) error
	DeleteImageCaption(ctx context.Context, ownerID string, propertyID, imageID int64) error

	AddFavorite(ctx context.Context, userID string, propertyID int64) error
	RemoveFavorite(ctx context.Context, userID string, propertyID int64) error
	ListFavorites(ctx context.Context, userID string) ([]Property, error)
}

// Input holds the fields of a new listing.
type Input struct {
	Type          Type
	City          string
	NumberOfRooms int
	Area          float64
	LocationText  string
	Price         float64
	IsForRent     bool
	Details       *string
	Latitude      *float64
	Longitude     *float64
}

// Patch is a partial listing update; nil fields are left untouched.
type Patch struct {
	Type          *Type
	City          *string
	NumberOfRooms *int
	Area          *float64
	LocationText  *string
	Price         *float64
	IsForRent     *bool
	Details       *string
	Latitude      *float64
	Longitude     *float64
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a property service. now defaults to time.Now.
func NewService(repo Repository, logger *slog.Logger, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, logger: logger, now: now}
}

func (s *service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, ErrInvalidFilter.WithDetail("type must be one of: flat, villa, house")
	}
	if _, ok := orderings[filter.Ordering]; filter.Ordering != "" && !ok {
		return nil, ErrInvalidFilter.WithDetail("ordering must be one of: price, -price, area, -area")
	}
	filter.normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list properties", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	return &Page{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Get returns a listing with its facilities and images.
func (s *service) Get(ctx context.Context, id int64) (*Property, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "get property")
	}
	if p.Facilities, err = s.repo.PropertyFacilities(ctx, id); err != nil {
		return nil, s.mapErr(err, "load facilities")
	}
	if p.Images, err = s.repo.PropertyImages(ctx, id); err != nil {
		return nil, s.mapErr(err, "load images")
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, ownerID string, input Input) (*Property, error) {
	if err := s.requireSeller(ctx, ownerID); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Property{
		OwnerID:       ownerID,
		Type:          input.Type,
		City:          input.City,
		NumberOfRooms: input.NumberOfRooms,
		Area:          input.Area,
		LocationText:  input.LocationText,
		Price:         input.Price,
		IsForRent:     input.IsForRent,
		Details:       input.Details,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, s.mapErr(err, "create property")
	}
	s.logger.Info("property created", "property_id", p.ID, "owner_id", ownerID)
	return p, nil
}

func (s *service) Update(ctx context.Context, ownerID string, id int64, patch Patch) (*Property, error) {
	p, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.City != nil {
		p.City = *patch.City
	}
	if patch.NumberOfRooms != nil {
		p.NumberOfRooms = *patch.NumberOfRooms
	}
	if patch.Area != nil {
		p.Area = *patch.Area
	}
	if patch.LocationText != nil {
		p.LocationText = *patch.LocationText
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.IsForRent != nil {
		p.IsForRent = *patch.IsForRent
	}
	if patch.Details != nil {
		p.Details = patch.Details
		if *patch.Details == "" {
			p.Details = nil
		}
	}
	if patch.Latitude != nil {
		p.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		p.Longitude = patch.Longitude
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, s.mapErr(err, "update property")
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, id int64) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr(err, "delete property")
	}
	s.logger.Info("property deleted", "property_id", id, "owner_id", ownerID)
	return nil
}

func (s *service) ListFacilities(ctx context.Context) ([]Facility, error) {
	out, err := s.repo.ListFacilities(ctx)
	if err != nil {
		return nil, s.mapErr(err, "list facilities")
	}
	return out, nil
}

func (s *service) AddFacility(ctx context.Context, ownerID string, propertyID, facilityID int64) error {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}
	return s.mapErr(s.repo.AddFacility(ctx, propertyID, facilityID), "add facility")
}

func (s *service) RemoveFacility(ctx context.Context, ownerID string, propertyID, facilityID int64) error {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}
	return s.mapErr(s.repo.RemoveFacility(ctx, propertyID, facilityID), "remove facility")
}

func (s *service) AddImage(ctx context.Context, ownerID string, propertyID int64, imageURL string, caption *string) (*Image, error) {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	if imageURL == "" {
		return nil, ErrInvalidProperty.WithDetail("imageUrl is required")
	}
	if caption != nil && *caption == "" {
		caption = nil
	}
	if caption != nil && len(*caption) > maxCaptionLen {
		return nil, ErrInvalidProperty.WithDetail("caption must be at most 255 characters")
	}

	img := &Image{PropertyID: propertyID, ImageURL: imageURL, Caption: caption, CreatedAt: s.now()}
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		n, err := repo.CountImages(ctx, propertyID)
		if err != nil {
			return err
		}
		if n >= maxImagesPerProperty {
			return ErrTooManyImages
		}
		return repo.AddImage(ctx, img)
	})
	if err != nil {
		return nil, s.mapErr(err, "add image")
	}
	return img, nil
}

func (s *service) DeleteImage(ctx context.Context, ownerID string, propertyID, imageID int64) error {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}
	return s.mapErr(s.repo.DeleteImage(ctx, propertyID, imageID), "delete image")
}

func (s *service) UpdateImageCaption(ctx context.Context, ownerID string, propertyID, imageID int64, caption string) error {
	if caption == "" || len(caption) > maxCaptionLen {
		return ErrInvalidProperty.WithDetail("caption must be between 1 and 255 characters")
	}
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}
	return s.mapErr(s.repo.UpdateImageCaption(ctx, propertyID, imageID, &caption), "update caption")
}

func (s *service) DeleteImageCaption(ctx context.Context, ownerID string, propertyID, imageID int64) error {
	if _, err := s.owned(ctx, ownerID, propertyID); err != nil {
		return err
	}
	return s.mapErr(s.repo.UpdateImageCaption(ctx, propertyID, imageID, nil), "delete caption")
}

func (s *service) AddFavorite(ctx context.Context, userID string, propertyID int64) error {
	if _, err := s.repo.Get(ctx, propertyID); err != nil {
		return s.mapErr(err, "add favorite")
	}
	return s.mapErr(s.repo.AddFavorite(ctx, userID, propertyID, s.now()), "add favorite")
}

func (s *service) RemoveFavorite(ctx context.Context, userID string, propertyID int64) error {
	return s.mapErr(s.repo.RemoveFavorite(ctx, userID, propertyID), "remove favorite")
}

func (s *service) ListFavorites(ctx context.Context, userID string) ([]Property, error) {
	out, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, s.mapErr(err, "list favorites")
	}
	return out, nil
}

func (s *service) requireSeller(ctx context.Context, userID string) error {
	ok, err := s.repo.IsSeller(ctx, userID)
	if err != nil {
		return s.mapErr(err, "check seller")
	}
	if !ok {
		return ErrNotSeller
	}
	return nil
}

// owned loads a listing the seller may modify. Listings of other owners
// are reported as missing.
func (s *service) owned(ctx context.Context, ownerID string, id int64) (*Property, error) {
	if err := s.requireSeller(ctx, ownerID); err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "get property")
	}
	if p.OwnerID != ownerID {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// mapErr passes domain errors through and turns anything else into ErrInternal.
func (s *service) mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	s.logger.Error("property repository failed", "op", op, "error", err)
	return ErrInternal.WithCause(err)
}

func validate(p *Property) error {
	fields := map[string][]string{}
	if !p.Type.Valid() {
		fields["type"] = []string{"must be one of: flat, villa, house"}
	}
	if p.City == "" {
		fields["city"] = []string{"is required"}
	}
	if p.LocationText == "" {
		fields["locationText"] = []string{"is required"}
	}
	if p.NumberOfRooms < 1 {
		fields["numberOfRooms"] = []string{"must be at least 1"}
	}
	if p.Area < 10 {
		fields["area"] = []string{"must be at least 10"}
	}
	if p.Price < 0 {
		fields["price"] = []string{"must not be negative"}
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		fields["latitude"] = []string{"must be between -90 and 90"}
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		fields["longitude"] = []string{"must be between -180 and 180"}
	}
	if len(fields) > 0 {
		return ErrInvalidProperty.WithContext(map[string]any{"fields": fields})
	}
	return nil
}
