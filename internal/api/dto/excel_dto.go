package dto

// ExportRequest 导出筛选
type ExportRequest struct {
	UserID     int64  `form:"user_id"`
	StartDate  string `form:"start_date"` // 创建时间
	EndDate    string `form:"end_date"`
	WechatName string `form:"wechat_name"`
	Phone      string `form:"phone"`
}

// ImportResult 导入结果
type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
	Encoding     string   `json:"encoding,omitempty"`
}

// BackupResult 备份结果
type BackupResult struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}
