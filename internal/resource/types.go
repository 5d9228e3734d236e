package resource

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// ID is a server-assigned resource identifier
type ID = int64

// Model is any resource the API serves. Identity is the ID alone.
type Model interface {
	ResourceID() ID
}

// Body is a write request body. Update and PartialUpdate address the
// resource named by its ID.
type Body interface {
	ResourceID() ID
}

// SameID reports whether a and b name the same resource.
func SameID[M Model](a, b M) bool {
	return a.ResourceID() == b.ResourceID()
}

// ErrMissingID is returned by Update and PartialUpdate for a body without id
var ErrMissingID = errors.New("resource body has no id")

// ErrorDetail describes one server-side error
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// UnmarshalJSON accepts either an error object or a bare message string.
func (e *ErrorDetail) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var msg string
		if err := sonic.UnmarshalString(trimmed, &msg); err != nil {
			return err
		}
		*e = ErrorDetail{Message: msg}
		return nil
	}

	type plain ErrorDetail
	var p plain
	if err := sonic.UnmarshalString(trimmed, &p); err != nil {
		return err
	}
	*e = ErrorDetail(p)
	return nil
}

func (e ErrorDetail) String() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Pagination describes one page of a list result
type Pagination struct {
	TotalResults       int  `json:"totalResults"`
	MaxResultsPerPage  int  `json:"maxResultsPerPage"`
	NumResultsThisPage int  `json:"numResultsThisPage"`
	ThisPageNumber     int  `json:"thisPageNumber"`
	TotalPages         int  `json:"totalPages"`
	PrevPageExists     bool `json:"prevPageExists"`
	NextPageExists     bool `json:"nextPageExists"`
}

// DefaultPageSize is the page size the API uses for icon listings
const DefaultPageSize = 100

// EmptyPagination is the pagination of a list nothing has been fetched into.
// It is the one value allowed page 0.
func EmptyPagination() Pagination {
	return Pagination{MaxResultsPerPage: DefaultPageSize}
}

// IsEmpty reports whether p is the empty sentinel
func (p Pagination) IsEmpty() bool {
	return p == EmptyPagination()
}

// Validate checks the page bookkeeping is self-consistent
func (p Pagination) Validate() error {
	if p.IsEmpty() {
		return nil
	}
	if p.ThisPageNumber < 1 {
		return fmt.Errorf("page number %d is not 1-indexed", p.ThisPageNumber)
	}
	if p.NumResultsThisPage > p.MaxResultsPerPage {
		return fmt.Errorf("page holds %d results, max %d", p.NumResultsThisPage, p.MaxResultsPerPage)
	}
	if p.NextPageExists != (p.ThisPageNumber < p.TotalPages) {
		return fmt.Errorf("nextPageExists=%t inconsistent with page %d of %d",
			p.NextPageExists, p.ThisPageNumber, p.TotalPages)
	}
	return nil
}

// Envelope is the server's single-resource response body
type Envelope[M Model] struct {
	Success   bool          `json:"success"`
	Errors    []ErrorDetail `json:"errors,omitempty"`
	Data      M             `json:"data"`
	Retrieved time.Time     `json:"retrieved"`
}

// ListEnvelope is the server's list response body
type ListEnvelope[M Model] struct {
	Success    bool          `json:"success"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
	Data       []M           `json:"data"`
	Pagination *Pagination   `json:"pagination,omitempty"`
	Retrieved  time.Time     `json:"retrieved"`
}

// ClientData is a converted single-resource result. Retrieved is the client
// time of conversion, not the server's timestamp.
type ClientData[M Model] struct {
	Success   bool
	Errors    []ErrorDetail
	Data      M
	Retrieved time.Time
}

// ClientDataList is a converted list result
type ClientDataList[M Model] struct {
	Success    bool
	Errors     []ErrorDetail
	Data       []M
	Pagination Pagination
	Retrieved  time.Time
}

// EmptyList returns a list with no data and the empty pagination sentinel
func EmptyList[M Model](now time.Time) *ClientDataList[M] {
	return &ClientDataList[M]{
		Success:    true,
		Data:       []M{},
		Pagination: EmptyPagination(),
		Retrieved:  now,
	}
}

// Receipt is the result of a delete; the API sends no body
type Receipt struct {
	Status    int
	Retrieved time.Time
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Errors     []ErrorDetail
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if len(e.Errors) > 0 {
		parts := make([]string, len(e.Errors))
		for i, d := range e.Errors {
			parts[i] = d.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

// Temporary reports whether the failure is on the server side
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Params are list query parameters. Nil values are omitted.
type Params map[string]interface{}
