package service

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int
	PageSize  int
	Total     int64
	TotalPage int
}

// normalizePage 设置分页默认值
func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// newPagination 计算总页数
func newPagination(page, pageSize int, total int64) PaginationInfo {
	totalPage := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPage++
	}
	return PaginationInfo{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
