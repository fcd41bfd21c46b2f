package common

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// GetPageParams reads the zero-based page and the size from the query
// string. Missing or malformed values fall back to 0 and defaultSize.
func GetPageParams(r *http.Request, defaultSize int) (page, size int) {
	page, size = 0, defaultSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 {
		size = v
	}
	return page, size
}
