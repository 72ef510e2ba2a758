package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"wechat_order_v1/internal/api/dto"
)

func TestCalculateFee(t *testing.T) {
	rules := DefaultFeeRules()
	tests := []struct {
		name     string
		req      dto.CalculateFeeRequest
		final    string
		discount string
		min      bool
	}{
		{"基础费率", dto.CalculateFeeRequest{BaseAmount: decimal.NewFromInt(1000), Quantity: 1}, "100", "0", false},
		{"VIP 费率", dto.CalculateFeeRequest{BaseAmount: decimal.NewFromInt(1000), Quantity: 1, VIP: true}, "150", "0", false},
		{"批量折扣", dto.CalculateFeeRequest{BaseAmount: decimal.NewFromInt(1000), Quantity: 10}, "95", "5", false},
		{"最低金额", dto.CalculateFeeRequest{BaseAmount: decimal.NewFromInt(50), Quantity: 1}, "10", "0", true},
		// 银行家舍入
		{"舍入", dto.CalculateFeeRequest{BaseAmount: decimal.RequireFromString("1000.25"), Quantity: 1}, "100.02", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			got := CalculateFee(rules, &req)
			assert.Equal(t, tt.final, got.FinalAmount.String())
			assert.Equal(t, tt.discount, got.Discount.String())
			assert.Equal(t, tt.min, got.MinApplied)
			assert.NotEmpty(t, got.Details)
		})
	}
}
