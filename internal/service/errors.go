package service

import (
	"errors"

	"github.com/flicky/brioso-market/internal/media"
	"github.com/flicky/brioso-market/internal/repository"
)

var (
	ErrNotAuthenticated   = errors.New("you must be signed in")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrMissingSignupField = errors.New("name, email, password and phone are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrUserAlreadyExists  = errors.New("an account with this email already exists")
	ErrEmailInUse         = errors.New("this email is already used by another user")
	ErrMissingProfileData = errors.New("name and email are required")
	ErrProfileNotUpdated  = errors.New("could not update profile")

	ErrMissingProductData = errors.New("all required fields must be completed")
	ErrEmptyProductName   = errors.New("name cannot be empty")
	ErrInvalidPrice       = errors.New("price must be a valid number greater than 0")
	ErrInvalidStock       = errors.New("stock must be a valid number greater than or equal to 0")
	ErrNotProductOwner    = errors.New("you can only change your own products")

	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrUnexpected is the message shown for failures that are not the
	// caller's fault. The underlying error is logged.
	ErrUnexpected = errors.New("something went wrong, please try again")
)

var userFacing = []error{
	ErrNotAuthenticated, ErrInvalidEmail, ErrInvalidCredentials, ErrMissingSignupField,
	ErrPasswordTooShort, ErrPasswordTooLong, ErrUserAlreadyExists, ErrEmailInUse,
	ErrMissingProfileData, ErrProfileNotUpdated, ErrMissingProductData, ErrEmptyProductName,
	ErrInvalidPrice, ErrInvalidStock, ErrNotProductOwner, ErrUnknownPaymentMethod,
	repository.ErrProductNotFound, repository.ErrInsufficientStock, repository.ErrEmptyCart,
	repository.ErrInvalidQuantity, media.ErrInvalidDataURI, media.ErrTooLarge,
}

// IsUserError reports whether err is a validation, not-found or stock
// failure whose message can be shown to the user as is.
func IsUserError(err error) bool {
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Message is the text recorded on a Storefront for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if IsUserError(err) {
		return err.Error()
	}
	return ErrUnexpected.Error()
}
