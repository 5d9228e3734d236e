package resource

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Transform rewrites an item during conversion
type Transform[M Model] func(M) M

// Convert turns a server envelope into client data stamped with now
func Convert[M Model](env Envelope[M], now time.Time, transform Transform[M]) *ClientData[M] {
	data := env.Data
	if transform != nil {
		data = transform(data)
	}
	return &ClientData[M]{
		Success:   env.Success,
		Errors:    env.Errors,
		Data:      data,
		Retrieved: now,
	}
}

// ConvertList turns a server list envelope into client data stamped with now.
// A missing pagination block is synthesised as a single page.
func ConvertList[M Model](env ListEnvelope[M], now time.Time, transform Transform[M]) *ClientDataList[M] {
	data := make([]M, len(env.Data))
	for i, item := range env.Data {
		if transform != nil {
			item = transform(item)
		}
		data[i] = item
	}

	var pagination Pagination
	if env.Pagination != nil {
		pagination = *env.Pagination
	} else {
		pagination = Pagination{
			TotalResults:       len(data),
			MaxResultsPerPage:  max(len(data), DefaultPageSize),
			NumResultsThisPage: len(data),
			ThisPageNumber:     1,
			TotalPages:         1,
		}
	}

	return &ClientDataList[M]{
		Success:    env.Success,
		Errors:     env.Errors,
		Data:       data,
		Pagination: pagination,
		Retrieved:  now,
	}
}

// Values encodes params as query values, skipping nil entries and nil
// pointers.
func (p Params) Values() url.Values {
	values := url.Values{}
	for key, raw := range p {
		if s, ok := formatParam(raw); ok {
			values.Set(key, s)
		}
	}
	return values
}

func formatParam(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case *int64:
		if val == nil {
			return "", false
		}
		return strconv.FormatInt(*val, 10), true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// Paginate cuts page out of items and describes it. Pages are 1-indexed and
// a page past the end is empty. Non-positive size means DefaultPageSize.
func Paginate[T any](items []T, page, size int) ([]T, Pagination) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	pages := (total + size - 1) / size
	from := min((page-1)*size, total)
	to := min(from+size, total)
	out := items[from:to]

	return out, Pagination{
		TotalResults:       total,
		MaxResultsPerPage:  size,
		NumResultsThisPage: len(out),
		ThisPageNumber:     page,
		TotalPages:         pages,
		PrevPageExists:     page > 1,
		NextPageExists:     page < pages,
	}
}
