package utils

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateOrderCode 生成订单编码：ORD + 年月日时分秒 + 4 位随机数
func GenerateOrderCode(now time.Time) string {
	return fmt.Sprintf("ORD%s%d", now.Format("20060102150405"), 1000+rand.IntN(9000))
}
