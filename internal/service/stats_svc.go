package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wechat_order_v1/internal/api/dto"
	"wechat_order_v1/internal/model"
	"wechat_order_v1/internal/repository"
	"wechat_order_v1/pkg/cache"
)

// 缓存
const (
	statsGenerationKey = "stats:gen"
	statsCacheTTL      = 5 * time.Minute
	topWechatNames     = 10
	defaultDailyDays   = 30
	maxDailyDays       = 366
)

// StatsService 统计服务
type StatsService struct {
	repo   repository.StatsRepository
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService 创建统计服务
func NewStatsService(repo repository.StatsRepository, c cache.Cache, logger *zap.Logger) *StatsService {
	return &StatsService{repo: repo, cache: c, logger: logger, now: time.Now}
}

// Invalidate 订单变更时调用，递增缓存代数使旧结果失效
func (s *StatsService) Invalidate(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, statsGenerationKey); err != nil {
		s.logger.Warn("统计缓存失效失败", zap.Error(err))
	}
}

func (s *StatsService) generation(ctx context.Context) int64 {
	v, ok, err := s.cache.Get(ctx, statsGenerationKey)
	if err != nil || !ok {
		return 0
	}
	gen, _ := strconv.ParseInt(v, 10, 64)
	return gen
}

// ==================== 统计总览 ====================

// Overview 统计总览（按创建时间筛选）
func (s *StatsService) Overview(ctx context.Context, req *dto.StatsRequest) (*dto.StatsOverview, error) {
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	sortBy := req.SortBy
	if sortBy != repository.StatsSortCount {
		sortBy = repository.StatsSortAmount
	}

	key := fmt.Sprintf("stats:%d:overview:%s:%s:%s", s.generation(ctx), req.StartDate, req.EndDate, sortBy)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached dto.StatsOverview
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	}

	rng := repository.StatsRange{From: from, To: to}
	totals, err := s.repo.Totals(ctx, rng)
	if err != nil {
		return nil, err
	}
	byUser, err := s.repo.ByUser(ctx, rng)
	if err != nil {
		return nil, err
	}
	byName, err := s.repo.ByWechatName(ctx, rng, sortBy, topWechatNames)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.ByOrderType(ctx, rng)
	if err != nil {
		return nil, err
	}

	result := &dto.StatsOverview{
		TotalOrders:  totals.Count,
		TotalAmount:  totals.Amount,
		AvgAmount:    average(totals.Amount, totals.Count),
		ByUser:       toStatsGroups(byUser),
		ByWechatName: toStatsGroups(byName),
		ByOrderType:  toStatsGroups(byType),
		StartDate:    formatDate(from),
		EndDate:      formatInclusiveEnd(to),
		SortBy:       sortBy,
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, string(data), statsCacheTTL); err != nil {
			s.logger.Warn("写入统计缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func toStatsGroups(rows []repository.GroupStats) []dto.StatsGroup {
	return lo.Map(rows, func(r repository.GroupStats, _ int) dto.StatsGroup {
		return dto.StatsGroup{ID: r.ID, Name: r.Name, Count: r.Count, Amount: r.Amount}
	})
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}

// ==================== 按日统计 ====================

// Daily 按完成日期统计，区间内每天都有数据
func (s *StatsService) Daily(ctx context.Context, req *dto.DailyStatsRequest) (*dto.DailyStatsResponse, error) {
	from, to, err := s.dailyRange(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.DailyRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*dto.DailyStat)
	for _, r := range rows {
		date := r.CompletionTime.In(time.Local).Format(model.DateLayout)
		stat, ok := byDay[date]
		if !ok {
			stat = &dto.DailyStat{Date: date, TotalAmount: decimal.Zero}
			byDay[date] = stat
		}
		stat.OrderCount++
		stat.TotalQuantity += r.Quantity
		if r.Amount.Valid {
			stat.TotalAmount = stat.TotalAmount.Add(r.Amount.Decimal)
		}
	}

	resp := &dto.DailyStatsResponse{
		StartDate:   from.Format(model.DateLayout),
		EndDate:     to.AddDate(0, 0, -1).Format(model.DateLayout),
		TotalAmount: decimal.Zero,
	}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateLayout)
		stat := dto.DailyStat{Date: date, TotalAmount: decimal.Zero}
		if found, ok := byDay[date]; ok {
			stat = *found
		}
		resp.Days = append(resp.Days, stat)
		resp.OrderCount += stat.OrderCount
		resp.TotalQuantity += stat.TotalQuantity
		resp.TotalAmount = resp.TotalAmount.Add(stat.TotalAmount)
	}
	return resp, nil
}

// dailyRange 指定起止日期优先，否则取最近 days 天（含今天）
func (s *StatsService) dailyRange(req *dto.DailyStatsRequest) (time.Time, time.Time, error) {
	if req.StartDate != "" && req.EndDate != "" {
		from, to, err := parseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if !from.Before(*to) {
			return time.Time{}, time.Time{}, newValidationError("start_date", "开始日期不能晚于结束日期")
		}
		if to.Sub(*from) > maxDailyDays*24*time.Hour {
			return time.Time{}, time.Time{}, newValidationError("end_date", "统计区间不能超过 %d 天", maxDailyDays)
		}
		return *from, *to, nil
	}

	days := req.Days
	if days <= 0 {
		days = defaultDailyDays
	}
	if days > maxDailyDays {
		days = maxDailyDays
	}
	to := startOfDay(s.now()).AddDate(0, 0, 1)
	return to.AddDate(0, 0, -days), to, nil
}
