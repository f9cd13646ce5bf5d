package templates

// VerificationCodeData holds variables for the 6-digit code emails.
type VerificationCodeData struct {
	Email          string
	Code           string
	ExpiresMinutes int
	SupportEmail   string
}

// ActivationCode is the typed handle for the user.activation_code template.
var ActivationCode = Expect[VerificationCodeData]("user.activation_code")

// PasswordResetCode is the typed handle for the user.password_reset_code template.
var PasswordResetCode = Expect[VerificationCodeData]("user.password_reset_code")

// PasswordChangedData holds variables for the password change notice.
type PasswordChangedData struct {
	Email        string
	SupportEmail string
}

// PasswordChanged is the typed handle for the user.password_changed template.
var PasswordChanged = Expect[PasswordChangedData]("user.password_changed")
