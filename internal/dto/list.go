package dto

import "math"

// ListMeta is the pagination envelope attached to every listing response.
// From and To are 1-based item positions; both are 0 on an empty page.
type ListMeta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

func NewListMeta(total int64, page, perPage, count int) ListMeta {
	lastPage := int(math.Ceil(float64(total) / float64(perPage)))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := ListMeta{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    lastPage,
	}
	if count > 0 {
		meta.From = (page-1)*perPage + 1
		meta.To = (page-1)*perPage + count
	}
	return meta
}

type ProjectList struct {
	Data []ProjectResponse `json:"data"`
	Meta ListMeta          `json:"meta"`
}

type TaskList struct {
	Data []TaskResponse `json:"data"`
	Meta ListMeta       `json:"meta"`
}

type OverdueProjects struct {
	Data  []ProjectResponse `json:"data"`
	Count int               `json:"count"`
}

type OverdueTasks struct {
	Data  []TaskResponse `json:"data"`
	Count int            `json:"count"`
}

type BulkUpdateResult struct {
	UpdatedCount int64  `json:"updated_count"`
	Message      string `json:"message"`
}

type BulkUpdateStatusInput struct {
	IDs    []string `json:"ids" binding:"required,min=1,dive,uuid"`
	Status string   `json:"status" binding:"required"`
}
