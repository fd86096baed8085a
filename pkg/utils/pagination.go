package utils

import (
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage 页码上限，保证 (page-1)*limit 不会溢出
	MaxPage = 10000
)

// Pagination 分页请求参数
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// PageResult 分页响应结果
type PageResult struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total,omitempty"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// ParsePagination 解析查询参数，非数字或非正数回退到默认值，不会报错
func ParsePagination(pageRaw, limitRaw string) Pagination {
	return Pagination{
		Page:  positiveOr(pageRaw, DefaultPage),
		Limit: positiveOr(limitRaw, DefaultLimit),
	}
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// GetPageOffset 计算分页偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return (p.Page - 1) * p.Limit, p.Limit
}
