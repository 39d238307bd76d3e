package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type localeCtxKey struct{}
type countryCtxKey struct{}

// CountryLookup resolves an ISO 3166-1 alpha-2 country code for an IP
// address. A GeoIP resolver satisfies this; nil disables the lookup step.
type CountryLookup func(ip string) (string, error)

// I18N decides the caption language for every request and stores it on the
// context together with the country it was derived from. Captions are only
// produced in English and Indonesian, so every hint collapses to one of the
// two. Detection order: X-Locale header, Accept-Language, the client's
// country, then the configured fallback.
func I18N(fallback string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			ctx := context.WithValue(r.Context(), localeCtxKey{}, chooseLocale(r, country, fallback))
			if country != "" {
				ctx = context.WithValue(ctx, countryCtxKey{}, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the locale I18N stored for the request, or "en"
// outside the middleware.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeCtxKey{}).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the detected country code, or "" when no hint
// resolved one.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryCtxKey{}).(string); ok {
		return v
	}
	return ""
}

func chooseLocale(r *http.Request, country, fallback string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return collapseLocale(v)
	}
	if tags := languageTags(r.Header.Get("Accept-Language")); len(tags) > 0 {
		return collapseLocale(tags[0])
	}
	if strings.EqualFold(country, "ID") {
		return "id"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// ResolveCountry finds a best-effort country code for the request: proxy
// headers first, then a region subtag in the language headers, then the
// language itself, then the GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"} {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return strings.ToUpper(v)
		}
	}
	for _, source := range []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		tags := languageTags(source)
		for _, tag := range tags {
			if region := regionSubtag(tag); region != "" {
				return region
			}
		}
		if len(tags) > 0 && collapseLocale(tags[0]) == "id" {
			return "ID"
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

// languageTags splits an Accept-Language style header into its bare tags,
// dropping quality weights and empty entries.
func languageTags(header string) []string {
	var tags []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// collapseLocale maps any language tag onto the two supported locales.
func collapseLocale(tag string) string {
	if strings.HasPrefix(strings.ToLower(tag), "id") {
		return "id"
	}
	return "en"
}

// regionSubtag extracts the region from a tag like "id-ID" or "en_US".
func regionSubtag(tag string) string {
	if idx := strings.IndexAny(tag, "-_"); idx > 0 && idx < len(tag)-1 {
		return strings.ToUpper(tag[idx+1:])
	}
	return ""
}

// ClientIP returns the best-effort client address, preferring the first
// X-Forwarded-For entry over the socket peer.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		if first := strings.TrimSpace(strings.Split(xf, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
