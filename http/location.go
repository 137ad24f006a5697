package http

import "net/http"

// Location kinds
const (
	KindCookie = "cookie"
	KindHeader = "header"
	KindQuery  = "query"
)

// Location represents where the session id travels
type Location struct {
	Name string
	Kind string
}

// NewCookieLocation creates a cookie location
func NewCookieLocation(name string) *Location {
	return &Location{Name: name, Kind: KindCookie}
}

// NewHeaderLocation creates a header location
func NewHeaderLocation(name string) *Location {
	return &Location{Name: name, Kind: KindHeader}
}

// NewQueryLocation creates a query parameter location; ids minted for query clients are returned in a header of the same name
func NewQueryLocation(name string) *Location {
	return &Location{Name: name, Kind: KindQuery}
}

// Locate returns session id carried by the request, or empty string
func (l *Location) Locate(r *http.Request) string {
	switch l.Kind {
	case KindHeader:
		return r.Header.Get(l.Name)
	case KindQuery:
		return r.URL.Query().Get(l.Name)
	default:
		if ck, err := r.Cookie(l.Name); err == nil {
			return ck.Value
		}
	}
	return ""
}
