package content

import (
	"net/url"
	"strconv"
	"strings"
)

// OptimizeImageURL asks the CMS image API for a resized WebP rendition.
// URLs that are not served from ctfassets.net, or do not parse, come back
// unchanged.
func OptimizeImageURL(raw string, width, quality int) string {
	u, err := url.Parse(absoluteURL(raw))
	if err != nil || !isAssetHost(u.Hostname()) {
		return raw
	}

	q := u.Query()
	q.Set("w", strconv.Itoa(width))
	q.Set("q", strconv.Itoa(quality))
	q.Set("fm", "webp")
	q.Set("fit", "fill")
	u.RawQuery = q.Encode()
	return u.String()
}

// isAssetHost matches ctfassets.net and its subdomains, not hosts that merely
// end in the same letters.
func isAssetHost(host string) bool {
	host = strings.ToLower(host)
	return host == "ctfassets.net" || strings.HasSuffix(host, ".ctfassets.net")
}
