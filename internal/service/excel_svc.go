package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
	"wechat_order_v1/pkg/utils"
)

const (
	orderSheet      = "订单"
	importBaseCols  = 10 // 固定列数，之后为自定义字段
	maxImportErrors = 10
)

var (
	templateHeaders = []string{"订单编码*", "订单类型", "微信名*", "微信号", "手机号", "订单信息*", "完成时间*", "数量*", "金额", "备注"}
	exportHeaders   = []string{"订单编码", "订单类型", "微信名", "微信号", "手机号", "订单信息", "完成时间", "数量", "金额", "备注", "创建时间"}
	columnWidths    = []float64{18, 12, 16, 16, 14, 30, 12, 8, 10, 20, 20, 12}
)

// ExcelService 订单模板、导出、导入
type ExcelService struct {
	uow    *repository.UnitOfWork
	orders *OrderService
	logger *zap.Logger
	now    func() time.Time
}

// NewExcelService 创建服务
func NewExcelService(uow *repository.UnitOfWork, orders *OrderService, logger *zap.Logger) *ExcelService {
	return &ExcelService{uow: uow, orders: orders, logger: logger, now: time.Now}
}

// ==================== 模板 ====================

// Template 生成导入模板（含一行示例）
func (s *ExcelService) Template(ctx context.Context) ([]byte, error) {
	fields, err := s.uow.OrderFields.ListCustom(ctx)
	if err != nil {
		return nil, err
	}

	headers := append([]string{}, templateHeaders...)
	example := []interface{}{"ORD001", "海报", "张三", "zhangsan123", "13800138000", "海报设计", s.now().Format(model.DateLayout), 1, 100.00, ""}
	for _, f := range fields {
		name := f.Name
		if f.Required {
			name += "*"
		}
		headers = append(headers, name)
		example = append(example, exampleValue(f.FieldType))
	}

	return buildWorkbook(headers, [][]interface{}{example})
}

func exampleValue(fieldType string) interface{} {
	switch fieldType {
	case model.FieldTypeNumber:
		return 0
	case model.FieldTypeDate:
		return time.Now().Format(model.DateLayout)
	}
	return ""
}

// ==================== 导出 ====================

// Export 按条件导出订单，返回文件内容和文件名
func (s *ExcelService) Export(ctx context.Context, viewer Viewer, req *dto.ExportRequest) ([]byte, string, error) {
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, "", err
	}

	filter := repository.OrderFilter{
		CreatedFrom: from,
		CreatedTo:   to,
		WechatName:  strings.TrimSpace(req.WechatName),
		Phone:       strings.TrimSpace(req.Phone),
	}
	showUser := viewer.CanViewAll()
	if !showUser {
		filter.UserID = &viewer.UserID
	} else if req.UserID > 0 {
		filter.UserID = &req.UserID
	}

	orders, err := s.uow.Orders.ListAll(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	fields, err := s.uow.OrderFields.ListCustom(ctx)
	if err != nil {
		return nil, "", err
	}

	headers := append([]string{}, exportHeaders...)
	if showUser {
		headers = append(headers, "提交用户")
	}
	headers = append(headers, lo.Map(fields, func(f model.OrderField, _ int) string { return f.Name })...)

	rows := make([][]interface{}, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		var amount interface{} = ""
		if o.Amount.Valid {
			amount, _ = o.Amount.Decimal.Float64()
		}
		row := []interface{}{
			o.OrderCode, o.TypeName(), o.WechatName, o.WechatID, o.Phone, o.OrderInfo,
			o.CompletionDate(), o.Quantity, amount, o.Notes,
			o.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if showUser {
			username := ""
			if o.User != nil {
				username = o.User.Username
			}
			row = append(row, username)
		}
		for _, f := range fields {
			row = append(row, o.CustomFieldString(f.Name))
		}
		rows = append(rows, row)
	}

	data, err := buildWorkbook(headers, rows)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("orders_%s.xlsx", s.now().Format("20060102_150405"))
	s.logger.Info("导出订单", zap.Int64("user_id", viewer.UserID), zap.Int("count", len(orders)))
	return data, filename, nil
}

// buildWorkbook 生成带表头样式的单表工作簿
func buildWorkbook(headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(orderSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headerRow := lo.Map(headers, func(h string, _ int) interface{} { return h })
	if err := f.SetSheetRow(orderSheet, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(orderSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		if i < len(columnWidths) {
			width = columnWidths[i]
		}
		if err := f.SetColWidth(orderSheet, col, col, width); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(orderSheet, cell, &r); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ==================== 导入 ====================

// Import 导入 CSV / XLSX 订单，逐行走新增订单流程
func (s *ExcelService) Import(ctx context.Context, viewer Viewer, filename string, data []byte) (*dto.ImportResult, error) {
	var (
		records  [][]string
		encoding string
		err      error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		records, encoding, err = readCSV(data)
	case ".xlsx":
		records, err = readXLSX(data)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyImport
	}

	fields, err := s.uow.OrderFields.ListCustom(ctx)
	if err != nil {
		return nil, err
	}
	types, err := s.uow.OrderTypes.List(ctx, false)
	if err != nil {
		return nil, err
	}
	typeIDs := lo.SliceToMap(types, func(t model.OrderType) (string, int64) { return t.Name, t.ID })

	headers := lo.Map(records[0], func(h string, _ int) string {
		return strings.TrimSuffix(strings.TrimSpace(h), "*")
	})
	customCols := mapCustomColumns(headers, fields)

	result := &dto.ImportResult{Errors: []string{}, Encoding: encoding}
	var messages []string
	for idx, row := range records[1:] {
		line := idx + 2
		if isBlankRow(row) {
			continue
		}
		// xlsx 会省略行尾空单元格，只对 CSV 检查原始列数
		if ext == ".csv" && len(row) < importBaseCols {
			messages = append(messages, fmt.Sprintf("第%d行: 字段数量不足", line))
			continue
		}
		for len(row) < len(headers) {
			row = append(row, "")
		}

		in, err := rowToInput(row, typeIDs, customCols)
		if err == nil {
			_, err = s.orders.CreateFromInput(ctx, viewer, in)
		}
		if err != nil {
			messages = append(messages, fmt.Sprintf("第%d行: %s", line, err.Error()))
			continue
		}
		result.SuccessCount++
	}

	result.ErrorCount = len(messages)
	if len(messages) > maxImportErrors {
		messages = append(messages[:maxImportErrors], fmt.Sprintf("... 还有 %d 条错误信息未显示", len(messages)-maxImportErrors))
	}
	result.Errors = append(result.Errors, messages...)

	s.logger.Info("导入订单完成",
		zap.Int64("user_id", viewer.UserID),
		zap.String("file", filename),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.ErrorCount),
	)
	return result, nil
}

func readCSV(data []byte) ([][]string, string, error) {
	text, enc, err := utils.DecodeText(data)
	if err != nil {
		return nil, "", ErrUndecodableFile
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, enc, newValidationError("file", "CSV 解析失败: %s", err.Error())
	}
	return records, enc, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newValidationError("file", "Excel 文件无法打开: %s", err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	return f.GetRows(sheet)
}

// mapCustomColumns 第 10 列之后的表头按名称匹配自定义字段
// 表头无法匹配时按自定义字段顺序对应
func mapCustomColumns(headers []string, fields []model.OrderField) map[int]model.OrderField {
	byName := lo.KeyBy(fields, func(f model.OrderField) string { return f.Name })
	cols := make(map[int]model.OrderField)
	for j := importBaseCols; j < len(headers); j++ {
		if f, ok := byName[headers[j]]; ok {
			cols[j] = f
			continue
		}
		if pos := j - importBaseCols; pos < len(fields) {
			if _, used := lo.Find(lo.Values(cols), func(c model.OrderField) bool { return c.ID == fields[pos].ID }); !used {
				cols[j] = fields[pos]
			}
		}
	}
	return cols
}

func isBlankRow(row []string) bool {
	return lo.EveryBy(row, func(c string) bool { return strings.TrimSpace(c) == "" })
}

// rowToInput 行数据转订单参数
func rowToInput(row []string, typeIDs map[string]int64, customCols map[int]model.OrderField) (OrderInput, error) {
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	in := OrderInput{
		OrderCode:    cell(0),
		WechatName:   cell(2),
		WechatID:     cell(3),
		Phone:        cell(4),
		OrderInfo:    cell(5),
		Notes:        cell(9),
		TypeOptional: true,
	}
	if id, ok := typeIDs[cell(1)]; ok {
		in.OrderTypeID = &id
	}

	date, err := normalizeImportDate(cell(6))
	if err != nil {
		return in, err
	}
	in.CompletionTime = date

	if q := cell(7); q != "" {
		// Excel 数字单元格可能读成 "3.0"
		n, err := strconv.ParseFloat(q, 64)
		if err != nil || n != math.Trunc(n) {
			return in, newValidationError("quantity", "数量必须是整数: %s", q)
		}
		in.Quantity = int(n)
	}
	if a := cell(8); a != "" {
		amount, err := decimal.NewFromString(a)
		if err != nil {
			return in, newValidationError("amount", "金额格式错误: %s", a)
		}
		in.Amount = &amount
	}

	in.CustomFields = make(map[string]interface{}, len(customCols))
	for j, f := range customCols {
		v := cell(j)
		if v == "" {
			continue
		}
		if f.FieldType == model.FieldTypeDate {
			d, err := normalizeImportDate(v)
			if err != nil {
				return in, err
			}
			v = d
		}
		in.CustomFields[f.Name] = v
	}
	return in, nil
}

// normalizeImportDate 支持 YYYY-MM-DD、带时间的写法以及 Excel 日期序列号
func normalizeImportDate(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	if len(v) > len(model.DateLayout) {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", v, time.Local); err == nil {
			return t.Format(model.DateLayout), nil
		}
	}
	if _, err := time.ParseInLocation(model.DateLayout, v, time.Local); err == nil {
		return v, nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(model.DateLayout), nil
		}
	}
	return "", newValidationError("completion_time", "日期格式错误: %s，应为 YYYY-MM-DD", v)
}

// ==================== 错误定义 ====================

// 导入文件问题按参数错误处理
var (
	ErrUnsupportedFile error = &ValidationError{Field: "file", Message: "请上传 CSV 或 Excel(XLSX) 格式的文件"}
	ErrEmptyImport     error = &ValidationError{Field: "file", Message: "导入文件为空"}
	ErrUndecodableFile error = &ValidationError{Field: "file", Message: "无法识别文件编码，请使用 UTF-8、GBK 编码或改用 Excel 格式"}
)
