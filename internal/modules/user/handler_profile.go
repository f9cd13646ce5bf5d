package user

import (
	"context"

	"github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/validation"
)

// --- DTOs & Mappers ---

// ProfileBody is the JSON shape of a profile.
type ProfileBody struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhotoURL    *string `json:"photoUrl"`
	BirthDate   *string `json:"birthDate"`
	Gender      *string `json:"gender"`
	Country     *string `json:"country"`
	PhoneNumber *string `json:"phoneNumber"`
}

// ProfileResponse is the owner's view of the profile.
type ProfileResponse struct {
	Body struct {
		Profile  ProfileBody `json:"profile"`
		IsEmpty  bool        `json:"isEmpty"`
		Points   int         `json:"points"`
		IsSeller bool        `json:"isSeller"`
		Detail   string      `json:"detail,omitempty"`
	}
}

// PublicProfileResponse is what other users can see.
type PublicProfileResponse struct {
	Body struct {
		UserID    string  `json:"userId"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		PhotoURL  *string `json:"photoUrl"`
		Country   *string `json:"country"`
		BirthDate *string `json:"birthDate"`
	}
}

// UpdateProfileRequest defines the fields that can be updated on a user's profile.
// Omitted fields are untouched; an empty string clears the field.
type UpdateProfileRequest struct {
	Body struct {
		FirstName   *string `json:"firstName,omitempty" validate:"omitnil,max=150"`
		LastName    *string `json:"lastName,omitempty" validate:"omitnil,max=150"`
		PhotoURL    *string `json:"photoUrl,omitempty" validate:"omitnil,max=500"`
		BirthDate   *string `json:"birthDate,omitempty"`
		Gender      *string `json:"gender,omitempty"`
		Country     *string `json:"country,omitempty" validate:"omitnil,max=100"`
		PhoneNumber *string `json:"phoneNumber,omitempty"`
	}
}

// PublicProfileRequest addresses another user's profile.
type PublicProfileRequest struct {
	UserID string `path:"userId"`
}

// SellerModeResponse reports the new seller flag.
type SellerModeResponse struct {
	Body struct {
		IsSeller bool `json:"isSeller"`
	}
}

func toProfileBody(p *Profile) ProfileBody {
	body := ProfileBody{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhotoURL:    p.PhotoURL,
		Gender:      p.Gender,
		Country:     p.Country,
		PhoneNumber: p.PhoneNumber,
	}
	if p.BirthDate != nil {
		d := p.BirthDate.Format(birthDateLayout)
		body.BirthDate = &d
	}
	return body
}

func toProfileResponse(d *ProfileDetails) *ProfileResponse {
	resp := &ProfileResponse{}
	resp.Body.Profile = toProfileBody(d.Profile)
	resp.Body.IsEmpty = d.IsEmpty
	resp.Body.Points = d.Points
	resp.Body.IsSeller = d.IsSeller
	return resp
}

// --- Handlers ---

// GetProfileHandler retrieves the profile of the currently authenticated user.
func (h *Handler) GetProfileHandler(ctx context.Context, _ *struct{}) (*ProfileResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	details, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get user profile", "user_id", userID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(details), nil
}

// UpdateProfileHandler partially updates the profile of the currently authenticated user.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*ProfileResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	details, changed, err := h.service.UpdateProfile(ctx, userID, UpdateProfileInput{
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
		PhotoURL:    input.Body.PhotoURL,
		BirthDate:   input.Body.BirthDate,
		Gender:      input.Body.Gender,
		Country:     input.Body.Country,
		PhoneNumber: input.Body.PhoneNumber,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := toProfileResponse(details)
	if !changed {
		resp.Body.Detail = "No changes were made."
	}
	return resp, nil
}

// ToggleSellerModeHandler flips seller mode for the current user.
func (h *Handler) ToggleSellerModeHandler(ctx context.Context, _ *struct{}) (*SellerModeResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	isSeller, err := h.service.ToggleSellerMode(ctx, userID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SellerModeResponse{}
	resp.Body.IsSeller = isSeller
	return resp, nil
}

// PublicProfileHandler returns another user's public profile.
func (h *Handler) PublicProfileHandler(ctx context.Context, input *PublicProfileRequest) (*PublicProfileResponse, error) {
	profile, err := h.service.GetPublicProfile(ctx, input.UserID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &PublicProfileResponse{}
	resp.Body.UserID = profile.UserID
	resp.Body.FirstName = profile.FirstName
	resp.Body.LastName = profile.LastName
	resp.Body.PhotoURL = profile.PhotoURL
	resp.Body.Country = profile.Country
	body := toProfileBody(profile)
	resp.Body.BirthDate = body.BirthDate
	return resp, nil
}
