// internal/app/system/limits/limits.go
package limits

import "github.com/dalemusser/roomdesk/internal/app/system/csvutil"

// Request body size limits. These keep oversized requests from exhausting
// memory.
const (
	// MaxJSONBodySize caps ordinary JSON request bodies (login, bulk
	// updates, room types).
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxReplaceBodySize caps a JSON room-set replacement.
	MaxReplaceBodySize = 2 << 20 // 2 MB

	// MaxUploadSize caps a room CSV upload, including multipart overhead.
	MaxUploadSize = csvutil.MaxUploadSize + 64<<10
)
