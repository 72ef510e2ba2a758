package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
)

const csvHeader = "订单编码,订单类型,微信名,微信号,手机号,订单信息,完成时间,数量,金额,备注"

func newExcelFixture(t *testing.T) (*orderFixture, *ExcelService) {
	f := newOrderFixture(t)
	svc := NewExcelService(f.uow, f.orders, zap.NewNop())
	return f, svc
}

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(orderSheet)
	require.NoError(t, err)
	return rows
}

func TestExcelService_Template(t *testing.T) {
	f, svc := newExcelFixture(t)
	require.NoError(t, f.db.Create(&model.OrderField{Name: "尺寸", FieldType: model.FieldTypeNumber, Required: true, Order: 10}).Error)

	data, err := svc.Template(context.Background())
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "订单编码*", rows[0][0])
	assert.Equal(t, "备注", rows[0][9])
	assert.Equal(t, "尺寸*", rows[0][10])
	assert.Equal(t, "ORD001", rows[1][0])
}

func TestExcelService_Export(t *testing.T) {
	f, svc := newExcelFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, viewerOf(f.alice), f.saveReq("E1", "张三", "zs001", "13800138000"))
	require.NoError(t, err)
	noType := f.saveReq("E2", "李四", "ls001", "")
	_, err = f.orders.QuickAdd(ctx, viewerOf(f.bob), &dto.QuickAddRequest{
		OrderCode: noType.OrderCode, WechatName: noType.WechatName, WechatID: noType.WechatID,
		OrderInfo: "x", Quantity: 1, Amount: noType.Amount,
	})
	require.NoError(t, err)

	data, filename, err := svc.Export(ctx, viewerOf(f.alice), &dto.ExportRequest{UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Regexp(t, `^orders_\d{8}_\d{6}\.xlsx$`, filename)
	rows := readSheet(t, data)
	require.Len(t, rows, 2)
	assert.NotContains(t, rows[0], "提交用户")
	assert.Equal(t, "E1", rows[1][0])
	assert.Equal(t, "海报", rows[1][1])

	data, _, err = svc.Export(ctx, viewerOf(f.admin), &dto.ExportRequest{})
	require.NoError(t, err)
	rows = readSheet(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, "提交用户", rows[0][11])
	assert.Equal(t, "E2", rows[1][0])
	assert.Equal(t, "未分类", rows[1][1])
	assert.Equal(t, "bob", rows[1][11])

	data, _, err = svc.Export(ctx, viewerOf(f.admin), &dto.ExportRequest{Phone: "138001"})
	require.NoError(t, err)
	assert.Len(t, readSheet(t, data), 2)
}

func TestExcelService_ImportCSV(t *testing.T) {
	f, svc := newExcelFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&model.OrderField{Name: "尺寸", FieldType: model.FieldTypeNumber, Order: 10}).Error)

	content := strings.Join([]string{
		csvHeader + ",尺寸",
		"I1,海报,张三,zs001,13800138000,海报设计,2024-05-01,2,99.9,,12",
		",,,,,,,,,,",
		"I2,不存在的类型,李四,ls001,,详情页,2024-05-02,1,,备注,",
		"I3,海报,王五,ww001,13800138000,冲突,2024-05-03,1,10,,",
		"I4,海报,赵六,zl001,,日期错,2024/05/03,1,10,,",
	}, "\n")

	result, err := svc.Import(ctx, viewerOf(f.alice), "orders.csv", []byte("\xEF\xBB\xBF"+content))
	require.NoError(t, err)
	assert.Equal(t, "utf-8-sig", result.Encoding)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	require.Len(t, result.Errors, 2)
	assert.True(t, strings.HasPrefix(result.Errors[0], "第5行: "))
	assert.Contains(t, result.Errors[0], "该手机号已被微信用户")
	assert.True(t, strings.HasPrefix(result.Errors[1], "第6行: "))

	order, err := f.uow.Orders.GetByIDWithRelations(ctx, mustOrderID(t, f, "I1"))
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, order.UserID)
	assert.Equal(t, "海报", order.TypeName())
	assert.Equal(t, 12.0, order.GetCustomField("尺寸"))
	assert.Equal(t, "99.9", order.Amount.Decimal.String())

	// 类型找不到时为空
	order, err = f.uow.Orders.GetByID(ctx, mustOrderID(t, f, "I2"))
	require.NoError(t, err)
	assert.Nil(t, order.OrderTypeID)
}

func TestExcelService_ImportGBK(t *testing.T) {
	f, svc := newExcelFixture(t)
	content, err := simplifiedchinese.GBK.NewEncoder().String(csvHeader + "\nG1,海报,张三,zs001,,海报,2024-05-01,1,10,备注\n")
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), viewerOf(f.alice), "gbk.CSV", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, "gbk", result.Encoding)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestExcelService_ImportErrors(t *testing.T) {
	f, svc := newExcelFixture(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, viewerOf(f.alice), "orders.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Import(ctx, viewerOf(f.alice), "orders.csv", nil)
	assert.ErrorIs(t, err, ErrValidation)

	// 表头不足 10 列
	result, err := svc.Import(ctx, viewerOf(f.alice), "short.csv", []byte("a,b,c\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"第2行: 字段数量不足"}, result.Errors)

	// 表头完整但数据行缺列
	result, err = svc.Import(ctx, viewerOf(f.alice), "short_row.csv", []byte(csvHeader+"\nS1,海报,张三\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"第2行: 字段数量不足"}, result.Errors)

	// 数量必须是整数，"3.0" 视为 3
	result, err = svc.Import(ctx, viewerOf(f.alice), "qty.csv", []byte(strings.Join([]string{
		csvHeader,
		"Q1,海报,张三,zs001,,海报,2024-05-01,2.5,10,",
		"Q2,海报,张三,zs001,,海报,2024-05-01,3.0,10,",
	}, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "第2行: "))
	assert.Contains(t, result.Errors[0], "数量必须是整数")
	order, err := f.uow.Orders.GetByID(ctx, mustOrderID(t, f, "Q2"))
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)

	// 错误信息最多展示 10 条
	lines := []string{csvHeader}
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("X%d,,,,,,2024-05-01,1,,", i))
	}
	result, err = svc.Import(ctx, viewerOf(f.alice), "bad.csv", []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 12, result.ErrorCount)
	require.Len(t, result.Errors, 11)
	assert.Contains(t, result.Errors[10], "还有 2 条")
}

func TestExcelService_ImportXLSX(t *testing.T) {
	f, svc := newExcelFixture(t)

	data, err := buildWorkbook(strings.Split(csvHeader, ","), [][]interface{}{
		{"X1", "海报", "张三", "zs001", "13800138000", "海报设计", "2024-05-01", 3, 30.5, "备注"},
	})
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), viewerOf(f.alice), "orders.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount, result.Errors)

	order, err := f.uow.Orders.GetByID(context.Background(), mustOrderID(t, f, "X1"))
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, "2024-05-01", order.CompletionDate())
}

func TestNormalizeImportDate(t *testing.T) {
	got, err := normalizeImportDate("2024-05-01 13:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got)

	got, err = normalizeImportDate("45413")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got)

	_, err = normalizeImportDate("May 1")
	assert.ErrorIs(t, err, ErrValidation)
}

func mustOrderID(t *testing.T, f *orderFixture, code string) int64 {
	t.Helper()
	var o model.Order
	require.NoError(t, f.db.Where("order_code = ?", code).First(&o).Error)
	return o.ID
}
