package dtos

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	Error        string         `json:"error,omitempty"`
	ResponseTime string         `json:"response_time"`
	Data         any            `json:"data,omitempty"`
	Pagination   *PaginationDTO `json:"pagination,omitempty"`
}

// PaginationDTO describes one page of an offset listing. Cursor listings
// fill NextCursor instead of the page counters.
type PaginationDTO struct {
	CurrentPage   int    `json:"currentPage"`
	PageSize      int    `json:"pageSize"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	IsLastPage    bool   `json:"isLastPage"`
	NextCursor    string `json:"nextCursor,omitempty"`
}

// NewPagination computes page counters for a zero-based page.
func NewPagination(page, size int, total int64) *PaginationDTO {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginationDTO{
		CurrentPage:   page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    pages,
		IsLastPage:    page+1 >= pages,
	}
}
