package apiclient

import (
	"net/url"
	"strconv"
	"time"
)

// dateLayout is the format of from_date/to_date parameters.
const dateLayout = "2006-01-02"

// query is a small builder that skips zero values, so filters left at their
// default never reach the backend.
type query url.Values

func (q query) str(key, value string) query {
	if value != "" {
		url.Values(q).Set(key, value)
	}
	return q
}

func (q query) int(key string, value int) query {
	if value > 0 {
		url.Values(q).Set(key, strconv.Itoa(value))
	}
	return q
}

func (q query) bool(key string, value *bool) query {
	if value != nil {
		url.Values(q).Set(key, strconv.FormatBool(*value))
	}
	return q
}

func (q query) date(key string, value time.Time) query {
	if !value.IsZero() {
		url.Values(q).Set(key, value.Format(dateLayout))
	}
	return q
}

func (q query) values() url.Values { return url.Values(q) }
