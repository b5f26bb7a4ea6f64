package model

// Pagination mirrors the platform API's paging object.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// NewPagination derives the page count from the totals.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		TotalItems:  total,
		TotalPages:  pages,
	}
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func NewResponse(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

func NewPagedResponse(data interface{}, p Pagination) Response {
	return Response{Success: true, Data: data, Pagination: &p}
}

func NewErrorResponse(message string) Response {
	return Response{Success: false, Message: message}
}
