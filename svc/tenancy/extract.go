package tenancy

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// DefaultTenantHeader is read by FromHeader when no name is given.
const DefaultTenantHeader = "X-Tenant-ID"

// identifierPattern keeps request-supplied ids URL and DNS safe.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Extractor reads the tenant id a request asks for.
// An empty id with a nil error means the request names no tenant.
type Extractor func(r *http.Request) (string, error)

func validIdentifier(id string) bool {
	return id != "" && len(id) <= tenant.MaxIDLength && identifierPattern.MatchString(id)
}

// FromHeader reads the tenant id from a header, X-Tenant-ID by default.
func FromHeader(name string) Extractor {
	if name == "" {
		name = DefaultTenantHeader
	}
	return func(r *http.Request) (string, error) {
		value := strings.TrimSpace(r.Header.Get(name))
		if value == "" {
			return "", nil
		}
		if !validIdentifier(value) {
			return "", fmt.Errorf("%w: header %s", ErrInvalidIdentifier, name)
		}
		return value, nil
	}
}

// FromSubdomain reads the tenant id from the first host label, skipping www.
// A host with fewer than three labels names no tenant.
func FromSubdomain(suffix string) Extractor {
	return func(r *http.Request) (string, error) {
		host := r.Host
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}
		if len(strings.Split(host, ".")) < 3 {
			return "", nil
		}
		if suffix != "" && strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			host = strings.TrimSuffix(host, suffix)
		}

		parts := strings.Split(host, ".")
		label := parts[0]
		if label == "www" {
			if len(parts) < 2 {
				return "", nil
			}
			label = parts[1]
		}
		if label == "" {
			return "", nil
		}
		if !validIdentifier(label) {
			return "", fmt.Errorf("%w: subdomain %q", ErrInvalidIdentifier, label)
		}
		return label, nil
	}
}

// FromPath reads the tenant id from a 1-based path segment.
// Position 2 reads {id} from /schools/{id}/students.
func FromPath(position int) Extractor {
	return func(r *http.Request) (string, error) {
		if position < 1 {
			return "", fmt.Errorf("invalid path position: %d", position)
		}
		path := strings.Trim(r.URL.Path, "/")
		if path == "" {
			return "", nil
		}
		parts := strings.Split(path, "/")
		if position > len(parts) {
			return "", nil
		}
		value := strings.TrimSpace(parts[position-1])
		if value == "" {
			return "", nil
		}
		if !validIdentifier(value) {
			return "", fmt.Errorf("%w: path segment %q", ErrInvalidIdentifier, value)
		}
		return value, nil
	}
}

// FirstOf tries extractors in order and returns the first id found.
// A malformed id stops the search: a later extractor never hides it.
func FirstOf(extractors ...Extractor) Extractor {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			id, err := extract(r)
			if err != nil {
				return "", err
			}
			if id != "" {
				return id, nil
			}
		}
		return "", nil
	}
}
