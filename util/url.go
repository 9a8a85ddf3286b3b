package util

import (
	"net/url"
	"path"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// URL is a builder with convenience methods for manipulating the path component of URLs.
//
// This exists because directly using filepath on a URL string makes it explode.
type URL struct {
	u url.URL
}

// ParseURL returns a fluent-style URL manipulator.
func ParseURL(uri string) (URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return URL{}, errors.WithStack(err)
	}
	return URL{*u}, nil
}

func (u URL) String() string {
	return u.u.String()
}

// Scheme of the URL
func (u URL) Scheme() string {
	return u.u.Scheme
}

// Path component of the URL.
func (u URL) Path() string {
	return u.u.Path
}

// Base returns the final path segment of the URL, or "" if there is none.
func (u URL) Base() string {
	p := strings.TrimRight(u.u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// BaseName returns the final path segment of a URL-ish string with its last extension removed.
//
// Works for SCP-style git remotes such as "git@github.com:org/repo.git" that net/url can't parse.
func BaseName(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndexAny(uri, "/:"); i >= 0 {
		uri = uri[i+1:]
	}
	return strings.TrimSuffix(uri, path.Ext(uri))
}
