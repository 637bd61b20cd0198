package domain

// PageInfo describes one page of a larger result set. TotalPages is always
// ceil(TotalCount / PageSize); HasNext and HasPrev are derived from it so the
// rendering side never recomputes pagination.
type PageInfo struct {
	TotalCount  int  `json:"total_count"`
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next_page"`
	HasPrev     bool `json:"has_previous_page"`
}

// NewPageInfo derives pagination metadata. Page and pageSize are clamped to 1
// so a zero-valued input cannot divide by zero or produce a 0-based page.
func NewPageInfo(totalCount, page, pageSize int) PageInfo {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}
	if totalCount < 0 {
		totalCount = 0
	}
	totalPages := (totalCount + pageSize - 1) / pageSize
	return PageInfo{
		TotalCount:  totalCount,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// ProductPage is one displayable page of products plus its pagination
// metadata. Both server-paginated and client-paginated code paths produce
// this same shape.
type ProductPage struct {
	Items []Product `json:"items"`
	PageInfo
}
