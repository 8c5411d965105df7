package errors

var (
	ErrInternal = &DomainError{
		Kind:    KindInternal,
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}
)

// Registration and credentials
var (
	ErrMobileTaken = &DomainError{
		Kind:    KindConflict,
		Code:    "MOBILE_TAKEN",
		Message: "user already exists",
	}
	ErrTooManyRequests = &DomainError{
		Kind:    KindRateLimited,
		Code:    "TOO_MANY_REQUESTS",
		Message: "too many requests, please try again later",
	}
	ErrOTPRateLimited = &DomainError{
		Kind:    KindRateLimited,
		Code:    "OTP_RATE_LIMITED",
		Message: "OTP request limit exceeded, please try again later",
	}
	ErrOTPInvalid = &DomainError{
		Kind:    KindNotFound,
		Code:    "OTP_INVALID",
		Message: "invalid OTP or mobile number",
	}
	ErrOTPNotOutstanding = &DomainError{
		Kind:    KindInvalidState,
		Code:    "OTP_NOT_OUTSTANDING",
		Message: "OTP verification entry not found or already verified",
	}
	ErrOTPNotVerified = &DomainError{
		Kind:    KindInvalidState,
		Code:    "OTP_NOT_VERIFIED",
		Message: "OTP not verified or registration not found",
	}
	ErrCredentialNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
	}
	ErrRoleNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ROLE_NOT_FOUND",
		Message: "role not found",
	}
	ErrRoleTaken = &DomainError{
		Kind:    KindConflict,
		Code:    "ROLE_TAKEN",
		Message: "role with this name already exists",
	}
)

// Sessions and tokens
var (
	ErrInvalidCredentials = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid mobile number or password",
	}
	ErrAccountDisabled = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "ACCOUNT_DISABLED",
		Message: "this account is disabled",
	}
	ErrTokenExpired = &DomainError{
		Kind:    KindExpired,
		Code:    "TOKEN_EXPIRED",
		Message: "token expired",
	}
	ErrTokenInvalid = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "TOKEN_INVALID",
		Message: "invalid token",
	}
	ErrUnauthenticated = &DomainError{
		Kind:    KindUnauthorized,
		Code:    "UNAUTHENTICATED",
		Message: "authentication required",
	}
)

// Authorization
var (
	ErrForbidden = &DomainError{
		Kind:    KindForbidden,
		Code:    "FORBIDDEN",
		Message: "insufficient permissions",
	}
	ErrUseAdminAPI = &DomainError{
		Kind:    KindForbidden,
		Code:    "USE_ADMIN_API",
		Message: "you are a superuser, use the dedicated admin API to list users",
	}
)

// Records
var (
	ErrProfileNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "PROFILE_NOT_FOUND",
		Message: "profile info not found for this user",
	}
	ErrProfileLocked = &DomainError{
		Kind:    KindInvalidState,
		Code:    "PROFILE_LOCKED",
		Message: "this information can only be updated once",
	}
	ErrAccountInactive = &DomainError{
		Kind:    KindInvalidState,
		Code:    "ACCOUNT_INACTIVE",
		Message: "user is not active",
	}
	ErrAssetNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ASSET_NOT_FOUND",
		Message: "asset not found",
	}
)

// Asset reference data
var (
	ErrReferenceNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "REFERENCE_NOT_FOUND",
		Message: "entry not found",
	}
	ErrReferenceTaken = &DomainError{
		Kind:    KindConflict,
		Code:    "REFERENCE_TAKEN",
		Message: "an entry with this name already exists",
	}
)

// Insurance
var (
	ErrInsuranceCompanyNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "INSURANCE_COMPANY_NOT_FOUND",
		Message: "insurance company not found",
	}
	ErrInsuranceProductNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "INSURANCE_PRODUCT_NOT_FOUND",
		Message: "insurance product not found",
	}
	ErrInsuranceNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "INSURANCE_NOT_FOUND",
		Message: "asset insurance not found",
	}
	ErrInsuranceNotActive = &DomainError{
		Kind:    KindInvalidState,
		Code:    "INSURANCE_NOT_ACTIVE",
		Message: "the insurance is not currently active",
	}
	ErrAssetAlreadyInsured = &DomainError{
		Kind:    KindConflict,
		Code:    "ASSET_ALREADY_INSURED",
		Message: "the asset already has an active insurance for this period",
	}
	ErrClaimNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "CLAIM_NOT_FOUND",
		Message: "insurance claim not found",
	}
	ErrClaimClosed = &DomainError{
		Kind:    KindInvalidState,
		Code:    "CLAIM_CLOSED",
		Message: "the claim has already been settled",
	}
)
