package core

// Page asks for one page of a listing. A zero Limit means no limit.
type Page struct {
	Page  int
	Limit int
}

// Offset of the first row of the page.
func (p Page) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Slice bounds of the page within total rows.
func (p Page) Bounds(total int) (start, end int) {
	start = p.Offset()
	if start > total {
		start = total
	}
	end = total
	if p.Limit > 0 && start+p.Limit < total {
		end = start + p.Limit
	}
	return start, end
}

type PageInfo struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPageInfo(p Page, total int) PageInfo {
	current := p.Page
	if current < 1 {
		current = 1
	}
	pages := 1
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{Current: current, Total: total, TotalPages: pages}
}

// Paginated is the JSON envelope of paginated listings.
type Paginated struct {
	Data       interface{} `json:"data"`
	Pagination PageInfo    `json:"pagination"`
}
