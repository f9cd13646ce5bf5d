package property

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*service, *mockRepository) {
	t.Helper()
	repo := &mockRepository{}
	t.Cleanup(func() { repo.AssertExpectations(t) })
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), func() time.Time { return fixedNow })
	return svc.(*service), repo
}

func validInput() Input {
	return Input{
		Type:          TypeFlat,
		City:          "Almaty",
		NumberOfRooms: 2,
		Area:          54.5,
		LocationText:  "Abay Ave 10",
		Price:         120000,
	}
}

func listing(id int64, owner string) *Property {
	return &Property{ID: id, OwnerID: owner, Type: TypeFlat, City: "Almaty", NumberOfRooms: 2, Area: 54.5, LocationText: "Abay Ave 10", Price: 120000}
}

func TestListNormalizesPaging(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	expected := ListFilter{City: "Almaty", Ordering: OrderPriceDesc, Page: 1, PageSize: maxPageSize}
	repo.On("List", ctx, expected).Return([]Property{*listing(1, "u1")}, 41, nil)

	page, err := svc.List(ctx, ListFilter{City: "Almaty", Ordering: OrderPriceDesc, Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
	assert.Len(t, page.Items, 1)
}

func TestListRejectsUnknownFilters(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), ListFilter{Type: "castle"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = svc.List(context.Background(), ListFilter{Ordering: "created_at"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGetLoadsFacilitiesAndImages(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	repo.On("Get", ctx, int64(7)).Return(listing(7, "u1"), nil)
	repo.On("PropertyFacilities", ctx, int64(7)).Return([]Facility{{ID: 1, Name: "Parking"}}, nil)
	repo.On("PropertyImages", ctx, int64(7)).Return([]Image{{ID: 3, PropertyID: 7, ImageURL: "https://img/1.jpg"}}, nil)

	p, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Parking", p.Facilities[0].Name)
	assert.Equal(t, int64(3), p.Images[0].ID)
}

func TestGetNotFound(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("Get", ctx, int64(9)).Return(nil, ErrPropertyNotFound)

	_, err := svc.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestCreateRequiresSeller(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "buyer").Return(false, nil)

	_, err := svc.Create(ctx, "buyer", validInput())
	assert.ErrorIs(t, err, ErrNotSeller)
}

func TestCreate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(p *Property) bool {
		return p.OwnerID == "seller" && p.CreatedAt.Equal(fixedNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Property).ID = 42
	}).Return(nil)

	p, err := svc.Create(ctx, "seller", validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
}

func TestCreateValidatesFields(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)

	in := validInput()
	in.Area = 9
	in.NumberOfRooms = 0

	_, err := svc.Create(ctx, "seller", in)
	require.ErrorIs(t, err, ErrInvalidProperty)
	fields := err.(*Error).Context.(map[string]any)["fields"].(map[string][]string)
	assert.Contains(t, fields, "area")
	assert.Contains(t, fields, "numberOfRooms")
}

func TestUpdateIsScopedToOwner(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "other").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)

	price := 1.0
	_, err := svc.Update(ctx, "other", 7, Patch{Price: &price})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestUpdateAppliesPatch(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)
	repo.On("Update", ctx, mock.AnythingOfType("*property.Property")).Return(nil)

	price, rent, empty := 99000.0, true, ""
	p, err := svc.Update(ctx, "seller", 7, Patch{Price: &price, IsForRent: &rent, Details: &empty})
	require.NoError(t, err)
	assert.Equal(t, 99000.0, p.Price)
	assert.True(t, p.IsForRent)
	assert.Nil(t, p.Details)
	assert.Equal(t, "Almaty", p.City)
	assert.Equal(t, fixedNow, p.UpdatedAt)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)
	repo.On("Delete", ctx, int64(7)).Return(nil)

	assert.NoError(t, svc.Delete(ctx, "seller", 7))
}

func TestAddFacilityDuplicate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)
	repo.On("AddFacility", ctx, int64(7), int64(2)).Return(ErrFacilityAlreadyAdded.WithCause(assert.AnError))

	err := svc.AddFacility(ctx, "seller", 7, 2)
	assert.ErrorIs(t, err, ErrFacilityAlreadyAdded)
}

func TestRepositoryFailureIsInternal(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("ListFacilities", ctx).Return(nil, assert.AnError)

	_, err := svc.ListFacilities(ctx)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestImageCaptions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)

	empty := ""
	repo.On("CountImages", ctx, int64(7)).Return(0, nil).Once()
	repo.On("AddImage", ctx, mock.MatchedBy(func(img *Image) bool {
		return img.PropertyID == 7 && img.Caption == nil
	})).Return(nil).Once()
	img, err := svc.AddImage(ctx, "seller", 7, "https://img/1.jpg", &empty)
	require.NoError(t, err)
	assert.Nil(t, img.Caption)

	caption := "Living room"
	repo.On("UpdateImageCaption", ctx, int64(7), int64(3), &caption).Return(nil).Once()
	require.NoError(t, svc.UpdateImageCaption(ctx, "seller", 7, 3, caption))

	repo.On("UpdateImageCaption", ctx, int64(7), int64(3), (*string)(nil)).Return(ErrImageNotFound).Once()
	assert.ErrorIs(t, svc.DeleteImageCaption(ctx, "seller", 7, 3), ErrImageNotFound)
}

func TestAddImageCapsPerProperty(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("IsSeller", ctx, "seller").Return(true, nil)
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)

	repo.On("CountImages", ctx, int64(7)).Return(9, nil).Once()
	repo.On("AddImage", ctx, mock.AnythingOfType("*property.Image")).Return(nil).Once()
	img, err := svc.AddImage(ctx, "seller", 7, "https://img/10.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), img.PropertyID)

	repo.On("CountImages", ctx, int64(7)).Return(10, nil).Once()
	_, err = svc.AddImage(ctx, "seller", 7, "https://img/11.jpg", nil)
	assert.ErrorIs(t, err, ErrTooManyImages)
	repo.AssertNumberOfCalls(t, "AddImage", 1)
}

func TestUpdateImageCaptionRejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.UpdateImageCaption(context.Background(), "seller", 7, 3, "")
	assert.ErrorIs(t, err, ErrInvalidProperty)
}

func TestFavorites(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	repo.On("Get", ctx, int64(7)).Return(listing(7, "seller"), nil)
	repo.On("AddFavorite", ctx, "buyer", int64(7), fixedNow).Return(nil).Once()
	repo.On("AddFavorite", ctx, "buyer", int64(7), fixedNow).Return(ErrAlreadyFavorite).Once()
	repo.On("RemoveFavorite", ctx, "buyer", int64(8)).Return(ErrNotFavorite)
	repo.On("ListFavorites", ctx, "buyer").Return([]Property{*listing(7, "seller")}, nil)

	require.NoError(t, svc.AddFavorite(ctx, "buyer", 7))
	assert.ErrorIs(t, svc.AddFavorite(ctx, "buyer", 7), ErrAlreadyFavorite)
	assert.ErrorIs(t, svc.RemoveFavorite(ctx, "buyer", 8), ErrNotFavorite)

	favs, err := svc.ListFavorites(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, favs, 1)
}
