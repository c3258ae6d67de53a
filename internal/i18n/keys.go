// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyForbidden     = "forbidden"
	KeyConflict      = "conflict"
	KeyInternalError = "internal_error"
	KeyRateLimited   = "rate_limit.exceeded"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound = "user.not_found"

	// Listings
	KeyListingCreated  = "listing.created"
	KeyListingUpdated  = "listing.updated"
	KeyListingDeleted  = "listing.deleted"
	KeyListingNotFound = "listing.not_found"

	// Offers
	KeyOfferSubmitted = "offer.submitted"
	KeyOfferAccepted  = "offer.accepted"
	KeyOfferRejected  = "offer.rejected"
	KeyOfferNotFound  = "offer.not_found"

	// Posts
	KeyPostCreated  = "post.created"
	KeyPostDeleted  = "post.deleted"
	KeyPostNotFound = "post.not_found"

	// Payments
	KeyPaymentIntentCreated = "payment.intent_created"

	// Artwork search
	KeySearchUnavailable = "search.unavailable"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
