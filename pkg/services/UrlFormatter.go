package services

import (
	"net/url"
	"strings"
)

const DefaultProxyPath = "/api/proxy"

/*
UrlFormatter rewrites image URLs so the browser loads them through the
front end's proxy endpoint. Output is always in proxy form, which makes
Format idempotent.
*/
type UrlFormatter struct {
	proxyPath    string
	knownOrigins []string
}

func NewUrlFormatter(proxyPath string, knownOrigins []string) UrlFormatter {
	proxyPath = strings.TrimRight(strings.TrimSpace(proxyPath), "/")

	if proxyPath == "" {
		proxyPath = DefaultProxyPath
	}

	if !strings.HasPrefix(proxyPath, "/") {
		proxyPath = "/" + proxyPath
	}

	origins := make([]string, 0, len(knownOrigins))

	for _, origin := range knownOrigins {
		if normalized := normalizeOrigin(origin); normalized != "" {
			origins = append(origins, normalized)
		}
	}

	return UrlFormatter{
		proxyPath:    proxyPath,
		knownOrigins: origins,
	}
}

func (f UrlFormatter) ProxyPath() string {
	return f.proxyPath
}

/*
Format applies, in order:
  - empty stays empty
  - already proxied URLs pass through
  - absolute URLs on a known origin become <proxy>/<path>
  - any other absolute URL becomes <proxy>?url=<escaped url>
  - relative paths become <proxy>/<path>
*/
func (f UrlFormatter) Format(rawURL string) string {
	u := strings.TrimSpace(rawURL)

	if u == "" {
		return ""
	}

	if f.isProxied(u) {
		return u
	}

	if isAbsoluteURL(u) {
		parsed, err := url.Parse(u)

		if err == nil && f.isKnownOrigin(parsed.Host) {
			rest := strings.TrimPrefix(parsed.EscapedPath(), "/")

			if parsed.RawQuery != "" {
				rest += "?" + parsed.RawQuery
			}

			// a raw query can end in whitespace, which a second pass would trim
			return strings.TrimSpace(f.proxyPath + "/" + rest)
		}

		return f.proxyPath + "?url=" + url.QueryEscape(u)
	}

	return f.proxyPath + "/" + strings.TrimLeft(u, "/")
}

func (f UrlFormatter) isProxied(u string) bool {
	return strings.Contains(u, f.proxyPath+"/") || strings.HasPrefix(u, f.proxyPath+"?")
}

func (f UrlFormatter) isKnownOrigin(host string) bool {
	host = strings.ToLower(host)

	for _, origin := range f.knownOrigins {
		if origin == host {
			return true
		}
	}

	return false
}

func isAbsoluteURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

/*
normalizeOrigin accepts either "host:port" or a full "http://host:port/"
and returns the lower-cased host:port.
*/
func normalizeOrigin(origin string) string {
	origin = strings.TrimSpace(origin)

	if origin == "" {
		return ""
	}

	if isAbsoluteURL(origin) {
		if parsed, err := url.Parse(origin); err == nil {
			return strings.ToLower(parsed.Host)
		}
	}

	return strings.ToLower(strings.TrimRight(origin, "/"))
}
