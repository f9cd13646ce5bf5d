package property

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Property, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]Property)
	return items, args.Int(1), args.Error(2)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Property, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*Property)
	return p, args.Error(1)
}

// WithTx runs fn against the mock itself, so expectations set on the outer
// repository also cover calls made inside the transaction.
func (m *mockRepository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Create(ctx context.Context, p *Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, p *Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) ListFacilities(ctx context.Context) ([]Facility, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]Facility)
	return out, args.Error(1)
}

func (m *mockRepository) PropertyFacilities(ctx context.Context, propertyID int64) ([]Facility, error) {
	args := m.Called(ctx, propertyID)
	out, _ := args.Get(0).([]Facility)
	return out, args.Error(1)
}

func (m *mockRepository) AddFacility(ctx context.Context, propertyID, facilityID int64) error {
	return m.Called(ctx, propertyID, facilityID).Error(0)
}

func (m *mockRepository) RemoveFacility(ctx context.Context, propertyID, facilityID int64) error {
	return m.Called(ctx, propertyID, facilityID).Error(0)
}

func (m *mockRepository) PropertyImages(ctx context.Context, propertyID int64) ([]Image, error) {
	args := m.Called(ctx, propertyID)
	out, _ := args.Get(0).([]Image)
	return out, args.Error(1)
}

func (m *mockRepository) CountImages(ctx context.Context, propertyID int64) (int, error) {
	args := m.Called(ctx, propertyID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) AddImage(ctx context.Context, img *Image) error {
	return m.Called(ctx, img).Error(0)
}

func (m *mockRepository) DeleteImage(ctx context.Context, propertyID, imageID int64) error {
	return m.Called(ctx, propertyID, imageID).Error(0)
}

func (m *mockRepository) UpdateImageCaption(ctx context.Context, propertyID, imageID int64, caption *string) error {
	return m.Called(ctx, propertyID, imageID, caption).Error(0)
}

func (m *mockRepository) AddFavorite(ctx context.Context, userID string, propertyID int64, at time.Time) error {
	return m.Called(ctx, userID, propertyID, at).Error(0)
}

func (m *mockRepository) RemoveFavorite(ctx context.Context, userID string, propertyID int64) error {
	return m.Called(ctx, userID, propertyID).Error(0)
}

func (m *mockRepository) ListFavorites(ctx context.Context, userID string) ([]Property, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]Property)
	return out, args.Error(1)
}

func (m *mockRepository) IsSeller(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
