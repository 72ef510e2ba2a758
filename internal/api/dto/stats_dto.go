package dto

import "github.com/shopspring/decimal"

// ==================== 统计总览 ====================

// StatsRequest 统计查询
type StatsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortBy    string `form:"sort_by,default=amount"` // amount / count
}

// StatsOverview 统计总览
type StatsOverview struct {
	TotalOrders  int64           `json:"total_orders"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AvgAmount    decimal.Decimal `json:"avg_amount"`
	ByUser       []StatsGroup    `json:"by_user"`
	ByWechatName []StatsGroup    `json:"by_wechat_name"`
	ByOrderType  []StatsGroup    `json:"by_order_type"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	SortBy       string          `json:"sort_by"`
}

// StatsGroup 分组统计
type StatsGroup struct {
	ID     int64           `json:"id,omitempty"`
	Name   string          `json:"name"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ==================== 按日统计 ====================

// DailyStatsRequest 按日统计查询
type DailyStatsRequest struct {
	Days      int    `form:"days"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// DailyStat 单日数据
type DailyStat struct {
	Date          string          `json:"date"`
	OrderCount    int64           `json:"order_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity int64           `json:"total_quantity"`
}

// DailyStatsResponse 按日统计
type DailyStatsResponse struct {
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Days          []DailyStat     `json:"days"`
	OrderCount    int64           `json:"order_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity int64           `json:"total_quantity"`
}
