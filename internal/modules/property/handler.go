package property

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/realestate-api/internal/contextx"
	"github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/validation"
)

// Handler exposes the property module over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
	auth    func(huma.Context, func(huma.Context))
}

func NewHandler(service Service, logger *slog.Logger, auth func(huma.Context, func(huma.Context))) *Handler {
	return &Handler{service: service, logger: logger, auth: auth}
}

// --- DTOs ---

type PropertyBody struct {
	ID            int64          `json:"id"`
	OwnerID       string         `json:"ownerId"`
	Type          Type           `json:"type"`
	City          string         `json:"city"`
	NumberOfRooms int            `json:"numberOfRooms"`
	Area          float64        `json:"area"`
	LocationText  string         `json:"locationText"`
	Price         float64        `json:"price"`
	IsForRent     bool           `json:"isForRent"`
	Details       *string        `json:"details"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Facilities    []FacilityBody `json:"facilities,omitempty"`
	Images        []ImageBody    `json:"images,omitempty"`
}

type FacilityBody struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ImageBody struct {
	ID       int64   `json:"id"`
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption"`
}

type ListRequest struct {
	City      string `query:"city"`
	Type      string `query:"type"`
	IsForRent string `query:"isForRent"`
	Search    string `query:"search"`
	Ordering  string `query:"ordering"`
	Page      int    `query:"page" minimum:"1" default:"1"`
	PageSize  int    `query:"pageSize" minimum:"1" maximum:"100" default:"20"`
}

type ListResponse struct {
	Body struct {
		Items    []PropertyBody `json:"items"`
		Total    int            `json:"total"`
		Page     int            `json:"page"`
		PageSize int            `json:"pageSize"`
	}
}

type PropertyPath struct {
	PropertyID int64 `path:"propertyId"`
}

type PropertyResponse struct {
	Body PropertyBody
}

type CreateRequest struct {
	Body struct {
		Type          string   `json:"type" validate:"required,oneof=flat villa house"`
		City          string   `json:"city" validate:"required,max=100"`
		NumberOfRooms int      `json:"numberOfRooms" validate:"gte=1"`
		Area          float64  `json:"area" validate:"gte=10"`
		LocationText  string   `json:"locationText" validate:"required,max=255"`
		Price         float64  `json:"price" validate:"gte=0"`
		IsForRent     bool     `json:"isForRent,omitempty"`
		Details       *string  `json:"details,omitempty"`
		Latitude      *float64 `json:"latitude,omitempty" validate:"omitnil,gte=-90,lte=90"`
		Longitude     *float64 `json:"longitude,omitempty" validate:"omitnil,gte=-180,lte=180"`
	}
}

type UpdateRequest struct {
	PropertyID int64 `path:"propertyId"`
	Body       struct {
		Type          *string  `json:"type,omitempty" validate:"omitnil,oneof=flat villa house"`
		City          *string  `json:"city,omitempty" validate:"omitnil,min=1,max=100"`
		NumberOfRooms *int     `json:"numberOfRooms,omitempty" validate:"omitnil,gte=1"`
		Area          *float64 `json:"area,omitempty" validate:"omitnil,gte=10"`
		LocationText  *string  `json:"locationText,omitempty" validate:"omitnil,min=1,max=255"`
		Price         *float64 `json:"price,omitempty" validate:"omitnil,gte=0"`
		IsForRent     *bool    `json:"isForRent,omitempty"`
		Details       *string  `json:"details,omitempty"`
		Latitude      *float64 `json:"latitude,omitempty" validate:"omitnil,gte=-90,lte=90"`
		Longitude     *float64 `json:"longitude,omitempty" validate:"omitnil,gte=-180,lte=180"`
	}
}

type FacilitiesResponse struct {
	Body []FacilityBody
}

type AddFacilityRequest struct {
	PropertyID int64 `path:"propertyId"`
	Body       struct {
		FacilityID int64 `json:"facilityId" validate:"required"`
	}
}

type FacilityPath struct {
	PropertyID int64 `path:"propertyId"`
	FacilityID int64 `path:"facilityId"`
}

type AddImageRequest struct {
	PropertyID int64 `path:"propertyId"`
	Body       struct {
		ImageURL string  `json:"imageUrl" validate:"required,url,max=500"`
		Caption  *string `json:"caption,omitempty" validate:"omitnil,max=255"`
	}
}

type ImageResponse struct {
	Body ImageBody
}

type ImagePath struct {
	PropertyID int64 `path:"propertyId"`
	ImageID    int64 `path:"imageId"`
}

type CaptionRequest struct {
	PropertyID int64 `path:"propertyId"`
	ImageID    int64 `path:"imageId"`
	Body       struct {
		Caption string `json:"caption" validate:"required,max=255"`
	}
}

type FavoritesResponse struct {
	Body []PropertyBody
}

type MessageResponse struct {
	Body struct {
		Detail string `json:"detail"`
	}
}

func message(detail string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Detail = detail
	return resp
}

func toPropertyBody(p *Property) PropertyBody {
	body := PropertyBody{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Type:          p.Type,
		City:          p.City,
		NumberOfRooms: p.NumberOfRooms,
		Area:          p.Area,
		LocationText:  p.LocationText,
		Price:         p.Price,
		IsForRent:     p.IsForRent,
		Details:       p.Details,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, f := range p.Facilities {
		body.Facilities = append(body.Facilities, FacilityBody{ID: f.ID, Name: f.Name})
	}
	for _, img := range p.Images {
		body.Images = append(body.Images, toImageBody(&img))
	}
	return body
}

func toImageBody(img *Image) ImageBody {
	return ImageBody{ID: img.ID, ImageURL: img.ImageURL, Caption: img.Caption}
}

func toPropertyBodies(items []Property) []PropertyBody {
	out := make([]PropertyBody, 0, len(items))
	for i := range items {
		out = append(out, toPropertyBody(&items[i]))
	}
	return out
}

func currentUserID(ctx context.Context) (string, error) {
	userID, ok := contextx.UserID(ctx)
	if !ok {
		return "", httpx.UnauthorizedProblem(ctx, "Authentication required.")
	}
	return userID, nil
}

// RegisterRoutes registers the listing, facility, image and favorite operations.
func (h *Handler) RegisterRoutes(api huma.API) {
	secured := func(op huma.Operation) huma.Operation {
		op.Security = []map[string][]string{{"bearer": {}}}
		op.Middlewares = huma.Middlewares{h.auth}
		return op
	}

	huma.Register(api, huma.Operation{
		OperationID: "property-list",
		Method:      http.MethodGet,
		Path:        "/properties",
		Summary:     "List properties",
		Tags:        []string{"properties"},
	}, h.ListHandler)

	huma.Register(api, huma.Operation{
		OperationID: "property-get",
		Method:      http.MethodGet,
		Path:        "/properties/{propertyId}",
		Summary:     "Get a property",
		Tags:        []string{"properties"},
	}, h.GetHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID:   "property-create",
		Method:        http.MethodPost,
		Path:          "/properties",
		Summary:       "Create a property",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"properties"},
	}), h.CreateHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-update",
		Method:      http.MethodPatch,
		Path:        "/properties/{propertyId}",
		Summary:     "Update a property",
		Tags:        []string{"properties"},
	}), h.UpdateHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-delete",
		Method:      http.MethodDelete,
		Path:        "/properties/{propertyId}",
		Summary:     "Delete a property",
		Tags:        []string{"properties"},
	}), h.DeleteHandler)

	// --- Facilities ---
	huma.Register(api, huma.Operation{
		OperationID: "facility-list",
		Method:      http.MethodGet,
		Path:        "/facilities",
		Summary:     "List facilities",
		Tags:        []string{"facilities"},
	}, h.ListFacilitiesHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID:   "property-add-facility",
		Method:        http.MethodPost,
		Path:          "/properties/{propertyId}/facilities",
		Summary:       "Add a facility to a property",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"facilities"},
	}), h.AddFacilityHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-remove-facility",
		Method:      http.MethodDelete,
		Path:        "/properties/{propertyId}/facilities/{facilityId}",
		Summary:     "Remove a facility from a property",
		Tags:        []string{"facilities"},
	}), h.RemoveFacilityHandler)

	// --- Images ---
	huma.Register(api, secured(huma.Operation{
		OperationID:   "property-add-image",
		Method:        http.MethodPost,
		Path:          "/properties/{propertyId}/images",
		Summary:       "Add an image",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"images"},
	}), h.AddImageHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-delete-image",
		Method:      http.MethodDelete,
		Path:        "/properties/{propertyId}/images/{imageId}",
		Summary:     "Delete an image",
		Tags:        []string{"images"},
	}), h.DeleteImageHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-update-caption",
		Method:      http.MethodPatch,
		Path:        "/properties/{propertyId}/images/{imageId}/caption",
		Summary:     "Set an image caption",
		Tags:        []string{"images"},
	}), h.UpdateCaptionHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-delete-caption",
		Method:      http.MethodDelete,
		Path:        "/properties/{propertyId}/images/{imageId}/caption",
		Summary:     "Remove an image caption",
		Tags:        []string{"images"},
	}), h.DeleteCaptionHandler)

	// --- Favorites ---
	huma.Register(api, secured(huma.Operation{
		OperationID:   "property-add-favorite",
		Method:        http.MethodPost,
		Path:          "/properties/{propertyId}/favorite",
		Summary:       "Add a property to favorites",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"favorites"},
	}), h.AddFavoriteHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "property-remove-favorite",
		Method:      http.MethodDelete,
		Path:        "/properties/{propertyId}/favorite",
		Summary:     "Remove a property from favorites",
		Tags:        []string{"favorites"},
	}), h.RemoveFavoriteHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "user-list-favorites",
		Method:      http.MethodGet,
		Path:        "/users/me/favorites",
		Summary:     "List the current user's favorites",
		Tags:        []string{"favorites"},
	}), h.ListFavoritesHandler)
}

// --- Handlers ---

func (h *Handler) ListHandler(ctx context.Context, input *ListRequest) (*ListResponse, error) {
	filter := ListFilter{
		City:     input.City,
		Type:     Type(input.Type),
		Search:   input.Search,
		Ordering: input.Ordering,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if input.IsForRent != "" {
		v, err := strconv.ParseBool(input.IsForRent)
		if err != nil {
			return nil, httpx.ToProblem(ctx, ErrInvalidFilter.WithDetail("isForRent must be true or false"))
		}
		filter.IsForRent = &v
	}

	page, err := h.service.List(ctx, filter)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &ListResponse{}
	resp.Body.Items = toPropertyBodies(page.Items)
	resp.Body.Total = page.Total
	resp.Body.Page = page.Page
	resp.Body.PageSize = page.PageSize
	return resp, nil
}

func (h *Handler) GetHandler(ctx context.Context, input *PropertyPath) (*PropertyResponse, error) {
	p, err := h.service.Get(ctx, input.PropertyID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &PropertyResponse{Body: toPropertyBody(p)}, nil
}

func (h *Handler) CreateHandler(ctx context.Context, input *CreateRequest) (*PropertyResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	b := input.Body
	p, err := h.service.Create(ctx, userID, Input{
		Type:          Type(b.Type),
		City:          b.City,
		NumberOfRooms: b.NumberOfRooms,
		Area:          b.Area,
		LocationText:  b.LocationText,
		Price:         b.Price,
		IsForRent:     b.IsForRent,
		Details:       b.Details,
		Latitude:      b.Latitude,
		Longitude:     b.Longitude,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &PropertyResponse{Body: toPropertyBody(p)}, nil
}

func (h *Handler) UpdateHandler(ctx context.Context, input *UpdateRequest) (*PropertyResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	b := input.Body
	patch := Patch{
		City:          b.City,
		NumberOfRooms: b.NumberOfRooms,
		Area:          b.Area,
		LocationText:  b.LocationText,
		Price:         b.Price,
		IsForRent:     b.IsForRent,
		Details:       b.Details,
		Latitude:      b.Latitude,
		Longitude:     b.Longitude,
	}
	if b.Type != nil {
		t := Type(*b.Type)
		patch.Type = &t
	}

	p, err := h.service.Update(ctx, userID, input.PropertyID, patch)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &PropertyResponse{Body: toPropertyBody(p)}, nil
}

func (h *Handler) DeleteHandler(ctx context.Context, input *PropertyPath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.Delete(ctx, userID, input.PropertyID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Property deleted."), nil
}

func (h *Handler) ListFacilitiesHandler(ctx context.Context, _ *struct{}) (*FacilitiesResponse, error) {
	facilities, err := h.service.ListFacilities(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &FacilitiesResponse{Body: make([]FacilityBody, 0, len(facilities))}
	for _, f := range facilities {
		resp.Body = append(resp.Body, FacilityBody{ID: f.ID, Name: f.Name})
	}
	return resp, nil
}

func (h *Handler) AddFacilityHandler(ctx context.Context, input *AddFacilityRequest) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	if err := h.service.AddFacility(ctx, userID, input.PropertyID, input.Body.FacilityID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Facility added."), nil
}

func (h *Handler) RemoveFacilityHandler(ctx context.Context, input *FacilityPath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.RemoveFacility(ctx, userID, input.PropertyID, input.FacilityID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Facility removed."), nil
}

func (h *Handler) AddImageHandler(ctx context.Context, input *AddImageRequest) (*ImageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	img, err := h.service.AddImage(ctx, userID, input.PropertyID, input.Body.ImageURL, input.Body.Caption)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &ImageResponse{Body: toImageBody(img)}, nil
}

func (h *Handler) DeleteImageHandler(ctx context.Context, input *ImagePath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.DeleteImage(ctx, userID, input.PropertyID, input.ImageID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Image deleted."), nil
}

func (h *Handler) UpdateCaptionHandler(ctx context.Context, input *CaptionRequest) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	if err := h.service.UpdateImageCaption(ctx, userID, input.PropertyID, input.ImageID, input.Body.Caption); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Caption updated."), nil
}

func (h *Handler) DeleteCaptionHandler(ctx context.Context, input *ImagePath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.DeleteImageCaption(ctx, userID, input.PropertyID, input.ImageID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Caption removed."), nil
}

func (h *Handler) AddFavoriteHandler(ctx context.Context, input *PropertyPath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.AddFavorite(ctx, userID, input.PropertyID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Added to favorites."), nil
}

func (h *Handler) RemoveFavoriteHandler(ctx context.Context, input *PropertyPath) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.RemoveFavorite(ctx, userID, input.PropertyID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Removed from favorites."), nil
}

func (h *Handler) ListFavoritesHandler(ctx context.Context, _ *struct{}) (*FavoritesResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.service.ListFavorites(ctx, userID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &FavoritesResponse{Body: toPropertyBodies(items)}, nil
}
