package ingest

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// NormalizeURL canonicalizes a page URL so that the same page always maps
// to the same document identity: scheme and hostname lower-cased,
// utm_-prefixed tracking parameters stripped, and a trailing slash
// enforced on non-root paths. Normalizing twice equals normalizing once.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", eris.Wrapf(err, "ingest: parse url %q", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", eris.Errorf("ingest: url %q missing scheme or host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if strings.HasPrefix(strings.ToLower(param), "utm_") {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	if u.Path == "" {
		u.Path = "/"
	} else if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	u.Fragment = ""

	return u.String(), nil
}
