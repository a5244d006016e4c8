package importer

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// rawRow is one extracted feed row before normalization: original field name
// (lowercased) to value. Both CSV and XML extraction produce this shape.
type rawRow map[string]string

var (
	artistAliases = []string{"artist", "author", "singer", "performer"}
	titleAliases  = []string{"title", "song", "songtitle", "track"}
	linkAliases   = []string{"url", "link", "purchaseurl", "producturl", "mp3link", "view/purchase"}
	brandAliases  = []string{"brand", "label", "category", "format", "description"}
)

// identifierPattern matches per-source product codes like PY22138 or PH104550:
// two letters then 3-7 digits. Codes show up embedded in free-text fields, so
// the scan runs over every value, not just identifier-named columns.
var identifierPattern = regexp.MustCompile(`(?i)\b[a-z]{2}[0-9]{3,7}\b`)

var hdWordPattern = regexp.MustCompile(`(?i)\bhd\b`)

func (r rawRow) pick(aliases []string) string {
	for _, alias := range aliases {
		if value := strings.TrimSpace(r[alias]); value != "" {
			return value
		}
	}
	return ""
}

// extractIdentifier scans alias-named fields first, then every remaining
// field in sorted key order so a row with several embedded codes always
// resolves to the same one. First match wins, normalized to uppercase.
func extractIdentifier(r rawRow) string {
	preferred := []string{
		"trackid", "id", "code", "productcode", "sku",
		"item", "itemnumber", "catalog", "catalognumber", "number", "no",
	}
	for _, key := range preferred {
		if m := identifierPattern.FindString(r[key]); m != "" {
			return strings.ToUpper(m)
		}
	}
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if m := identifierPattern.FindString(r[key]); m != "" {
			return strings.ToUpper(m)
		}
	}
	return ""
}

// deriveBrand resolves the sub-label: identifier prefix first, then an "hd"
// marker in brand-ish fields or the title, then the source default.
func (c Config) deriveBrand(r rawRow, identifier, title string) string {
	if len(identifier) >= 2 {
		if brand, ok := c.BrandPrefixes[strings.ToUpper(identifier[:2])]; ok {
			return brand
		}
	}
	for _, alias := range brandAliases {
		if strings.Contains(strings.ToLower(r[alias]), "hd") {
			return c.HDBrand
		}
	}
	if hdWordPattern.MatchString(title) {
		return c.HDBrand
	}
	return c.DefaultBrand
}

// withMerchant injects the affiliate merchant parameter unless the URL
// already carries one.
func withMerchant(raw, merchant string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		if strings.Contains(raw, "?") {
			return raw + "&merchant=" + url.QueryEscape(merchant)
		}
		return raw + "?merchant=" + url.QueryEscape(merchant)
	}
	query := parsed.Query()
	if query.Get("merchant") == "" {
		query.Set("merchant", merchant)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func (c Config) itemURL(identifier string) string {
	return withMerchant(strings.TrimSuffix(c.ItemURLBase, "/")+"/"+identifier, c.Merchant)
}

func (c Config) searchURL(artist, title string) string {
	q := strings.TrimSpace(strings.TrimSpace(artist) + " " + strings.TrimSpace(title))
	if q == "" {
		return ""
	}
	return withMerchant(c.SearchURLBase+"?q="+url.QueryEscape(q), c.Merchant)
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
