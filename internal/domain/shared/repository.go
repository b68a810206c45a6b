package shared

// ListOptions pages through history-style queries
type ListOptions struct {
	Page     int
	PageSize int
}

// DefaultListOptions returns the first page of 50 rows
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PageSize: 50}
}

// Offset returns the row offset for the requested page
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit()
}

// Limit returns the page size clamped to [1, 200]
func (o ListOptions) Limit() int {
	switch {
	case o.PageSize <= 0:
		return 50
	case o.PageSize > 200:
		return 200
	default:
		return o.PageSize
	}
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
