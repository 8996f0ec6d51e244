package server

import (
	"net/http"
	"strings"
)

// DefaultAPIVersion is served when the client does not request a specific
// version through the Accept header.
const DefaultAPIVersion = "v1"

const (
	vendorMediaPrefix = "application/vnd.nvidia.inventory."
	vendorMediaSuffix = "+json"
)

var supportedAPIVersions = map[string]bool{
	"v1": true,
}

func isValidAPIVersion(version string) bool {
	return supportedAPIVersions[version]
}

// negotiateAPIVersion extracts the requested API version from the Accept
// header, e.g. "application/vnd.nvidia.inventory.v1+json". Unsupported or
// malformed versions fall back to the default rather than failing the
// request.
func negotiateAPIVersion(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType := strings.TrimSpace(part)
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}
		if !strings.HasPrefix(mediaType, vendorMediaPrefix) || !strings.HasSuffix(mediaType, vendorMediaSuffix) {
			continue
		}
		version := strings.TrimSuffix(strings.TrimPrefix(mediaType, vendorMediaPrefix), vendorMediaSuffix)
		if isValidAPIVersion(version) {
			return version
		}
	}
	return DefaultAPIVersion
}
