package user

import (
	"context"
	"errors"
	"time"
)

const (
	birthDateLayout   = "2006-01-02"
	maxPhoneNumberLen = 15
)

// ProfileDetails is the owner's view of their profile.
type ProfileDetails struct {
	Profile  *Profile
	IsEmpty  bool
	Points   int
	IsSeller bool
}

// UpdateProfileInput defines the updatable fields for a user's profile.
// A nil field is left untouched; an empty string clears the field.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	PhotoURL    *string
	BirthDate   *string // YYYY-MM-DD
	Gender      *string // M or F
	Country     *string
	PhoneNumber *string
}

// GetProfile returns the user's profile, creating an empty one on first access.
func (s *service) GetProfile(ctx context.Context, userID string) (*ProfileDetails, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound.WithCause(err)
		}
		s.logger.Error("failed to get user from repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	profile, err := s.repo.GetOrCreateProfile(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user profile from repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	return &ProfileDetails{
		Profile:  profile,
		IsEmpty:  profile.IsEmpty(),
		Points:   user.Points,
		IsSeller: user.IsSeller,
	}, nil
}

// UpdateProfile applies a partial update and reports whether anything changed.
func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*ProfileDetails, bool, error) {
	details, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	profile := details.Profile

	changed := false
	for _, f := range []struct {
		in  *string
		dst **string
	}{
		{input.FirstName, &profile.FirstName},
		{input.LastName, &profile.LastName},
		{input.PhotoURL, &profile.PhotoURL},
		{input.Country, &profile.Country},
	} {
		if f.in != nil && setString(f.dst, *f.in) {
			changed = true
		}
	}

	if input.Gender != nil {
		if g := *input.Gender; g != "" && g != "M" && g != "F" {
			return nil, false, ErrInvalidProfile.WithDetail("gender must be M or F").
				WithContext(map[string]any{"fields": map[string][]string{"gender": {"must be one of: M, F"}}})
		}
		if setString(&profile.Gender, *input.Gender) {
			changed = true
		}
	}

	if input.PhoneNumber != nil {
		if len(*input.PhoneNumber) > maxPhoneNumberLen {
			return nil, false, ErrInvalidProfile.WithDetail("phoneNumber must be at most 15 characters").
				WithContext(map[string]any{"fields": map[string][]string{"phoneNumber": {"must be at most 15 characters"}}})
		}
		if setString(&profile.PhoneNumber, *input.PhoneNumber) {
			changed = true
		}
	}

	if input.BirthDate != nil {
		var birthDate *time.Time
		if *input.BirthDate != "" {
			d, err := time.Parse(birthDateLayout, *input.BirthDate)
			if err != nil {
				return nil, false, ErrInvalidProfile.WithCause(err).WithDetail("birthDate must use the YYYY-MM-DD format").
					WithContext(map[string]any{"fields": map[string][]string{"birthDate": {"must use the YYYY-MM-DD format"}}})
			}
			birthDate = &d
		}
		if !sameDate(profile.BirthDate, birthDate) {
			profile.BirthDate = birthDate
			changed = true
		}
	}

	if !changed {
		return details, false, nil
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		s.logger.Error("failed to update user profile in repository", "error", err, "user_id", userID)
		return nil, false, ErrInternal.WithCause(err)
	}
	details.IsEmpty = profile.IsEmpty()

	s.logger.Info("user profile updated successfully", "user_id", userID)
	return details, true, nil
}

// GetPublicProfile returns the profile of any user.
func (s *service) GetPublicProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("failed to get public profile", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	return profile, nil
}

// ToggleSellerMode flips the seller flag and returns the new value.
func (s *service) ToggleSellerMode(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		s.logger.Error("toggle seller: find user failed", "error", err, "user_id", userID)
		return false, ErrInternal.WithCause(err)
	}

	user.IsSeller = !user.IsSeller
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("toggle seller: update user failed", "error", err, "user_id", userID)
		return false, ErrInternal.WithCause(err)
	}

	s.logger.Info("seller mode toggled", "user_id", userID, "is_seller", user.IsSeller)
	return user.IsSeller, nil
}

// setString writes v into *dst, mapping "" to nil, and reports whether the value changed.
func setString(dst **string, v string) bool {
	if v == "" {
		if *dst == nil {
			return false
		}
		*dst = nil
		return true
	}
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(birthDateLayout) == b.Format(birthDateLayout)
}
