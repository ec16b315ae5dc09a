package models

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Paginate clamps page and size and returns the slice bounds for total items.
func Paginate(page, size, total int) (Pagination, int, int) {
	if size <= 0 {
		size = total
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Pagination{Page: page, PageSize: size, TotalCount: total}, start, end
}
