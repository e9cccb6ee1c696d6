package server

import (
	"net/url"
	"strings"
)

// shareLink builds the canonical retrieval URL for a share. The "id"
// query parameter name is a hard contract with the download page, which
// reads it back out to call /verify. The public base URL is explicit
// configuration, never inferred from the incoming request.
func shareLink(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/file.html?id=" + url.QueryEscape(id)
}
