package types

// Slug is a type for the slug field in the response
// It is mainly used for the client to understand the type of the response
type Slug string

// nolint:gochecknoglobals
const (
	SuccessSlug       Slug = "success"
	ErrorSlug         Slug = "error"
	InvalidInputSlug  Slug = "invalid-input"
	NotFoundSlug      Slug = "not-found"
	ConflictSlug      Slug = "conflict"
	NotConfiguredSlug Slug = "calendar-not-configured"
	CalendarErrorSlug Slug = "calendar-error"
	ServerErrorSlug   Slug = "server-error"
)

// SlugResponse is the envelope of every JSON response of the API
// swagger:model
// Example: {"slug":"success","error":"","data":{"id":"9f1c..."}}
type SlugResponse struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error"`
	Data  interface{} `json:"data"`
}

// Success returns a SlugResponse with the SuccessSlug and the data
func Success(data interface{}) SlugResponse {
	return SlugResponse{
		Slug: SuccessSlug,
		Data: data,
	}
}

// Failure returns a SlugResponse with the given slug and error message
func Failure(slug Slug, msg string) SlugResponse {
	return SlugResponse{
		Slug:  slug,
		Error: msg,
	}
}

// ErrInvalidInput returns a SlugResponse with the InvalidInputSlug and the error message
func ErrInvalidInput(msg string) SlugResponse {
	return Failure(InvalidInputSlug, msg)
}

// ErrNotFound returns a SlugResponse with the NotFoundSlug and the error message
func ErrNotFound(msg string) SlugResponse {
	return Failure(NotFoundSlug, msg)
}

// ErrServer returns a SlugResponse with the ServerErrorSlug and the error message
func ErrServer(msg string) SlugResponse {
	return Failure(ServerErrorSlug, msg)
}
