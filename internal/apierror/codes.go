package apierror

// Error type URIs following the urn:slated:error:* pattern.
const (
	TypeValidation   = "urn:slated:error:validation"
	TypeBadRequest   = "urn:slated:error:bad_request"
	TypeUnauthorized = "urn:slated:error:unauthorized"
	TypeForbidden    = "urn:slated:error:forbidden"
	TypeNotFound     = "urn:slated:error:not_found"
	TypeConflict     = "urn:slated:error:conflict"
	TypeRateLimit    = "urn:slated:error:rate_limit"
	TypeInternal     = "urn:slated:error:internal"
)

// Titles for each error type.
const (
	TitleValidation   = "Validation Error"
	TitleBadRequest   = "Bad Request"
	TitleUnauthorized = "Authentication Required"
	TitleForbidden    = "Permission Denied"
	TitleNotFound     = "Resource Not Found"
	TitleConflict     = "Resource Conflict"
	TitleRateLimit    = "Rate Limit Exceeded"
	TitleInternal     = "Internal Server Error"
)
