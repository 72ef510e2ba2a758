package service

import (
	"github.com/shopspring/decimal"

	"wechat_order_v1/internal/api/dto"
)

// FeeRules 金额试算规则
type FeeRules struct {
	BaseRate      decimal.Decimal // 普通费率
	VIPRate       decimal.Decimal // VIP 费率
	BulkDiscount  decimal.Decimal // 批量折扣
	BulkThreshold int             // 享受批量折扣的最小数量
	MinAmount     decimal.Decimal // 最低金额
}

// DefaultFeeRules 默认规则
func DefaultFeeRules() FeeRules {
	return FeeRules{
		BaseRate:      decimal.RequireFromString("0.10"),
		VIPRate:       decimal.RequireFromString("0.15"),
		BulkDiscount:  decimal.RequireFromString("0.05"),
		BulkThreshold: 10,
		MinAmount:     decimal.RequireFromString("10.00"),
	}
}

// CalculateFee 金额试算，只用于预览，不写入订单
func CalculateFee(rules FeeRules, req *dto.CalculateFeeRequest) *dto.FeeBreakdown {
	rate := rules.BaseRate
	details := []string{}
	if req.VIP {
		rate = rules.VIPRate
		details = append(details, "VIP 费率 "+rate.String())
	} else {
		details = append(details, "基础费率 "+rate.String())
	}

	amount := req.BaseAmount.Mul(rate)
	discount := decimal.Zero
	if req.Quantity >= rules.BulkThreshold {
		discount = amount.Mul(rules.BulkDiscount)
		amount = amount.Sub(discount)
		details = append(details, "批量折扣 "+rules.BulkDiscount.String())
	}

	minApplied := false
	if amount.LessThan(rules.MinAmount) {
		amount = rules.MinAmount
		minApplied = true
		details = append(details, "不足最低金额，按 "+rules.MinAmount.StringFixed(2)+" 计")
	}

	return &dto.FeeBreakdown{
		BaseAmount:  req.BaseAmount,
		AppliedRate: rate,
		Discount:    discount.RoundBank(2),
		MinApplied:  minApplied,
		FinalAmount: amount.RoundBank(2),
		Details:     details,
	}
}
