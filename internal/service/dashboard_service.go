package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	recentOrdersShown = 5
	revenueMonths     = 6
)

// DashboardService aggregates back-office headline numbers
type DashboardService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	now      func() time.Time
}

func NewDashboardService(users repository.UserRepository, products repository.ProductRepository, orders repository.OrderRepository) *DashboardService {
	return &DashboardService{
		users:    users,
		products: products,
		orders:   orders,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RecentOrder struct {
	ID        string             `json:"id"`
	Amount    decimal.Decimal    `json:"amount"`
	Status    domain.OrderStatus `json:"status"`
	Customer  Customer           `json:"customer"`
	CreatedAt time.Time          `json:"createdAt"`
}

type MonthRevenue struct {
	Name  string          `json:"name"`
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type StatusCount struct {
	Name  domain.OrderStatus `json:"name"`
	Value int64              `json:"value"`
}

type DashboardCharts struct {
	Revenue []MonthRevenue `json:"revenue"`
	Status  []StatusCount  `json:"status"`
}

type DashboardStats struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalProducts int64           `json:"totalProducts"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	RecentOrders  []RecentOrder   `json:"recentOrders"`
	Charts        DashboardCharts `json:"charts"`
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.users.CountActive(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	products, err := s.products.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	byStatus, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	recent, _, err := s.orders.List(ctx, repository.OrderFilter{Limit: recentOrdersShown})
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	monthly, err := s.monthlyRevenue(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalUsers:    users,
		TotalProducts: products,
		TotalRevenue:  revenue,
		RecentOrders:  make([]RecentOrder, 0, len(recent)),
		Charts: DashboardCharts{
			Revenue: monthly,
			Status:  make([]StatusCount, 0, len(byStatus)),
		},
	}
	for _, st := range domain.OrderStatuses {
		n := byStatus[st]
		stats.TotalOrders += n
		if n > 0 {
			stats.Charts.Status = append(stats.Charts.Status, StatusCount{Name: st, Value: n})
		}
	}
	for _, o := range recent {
		stats.RecentOrders = append(stats.RecentOrders, RecentOrder{
			ID:        o.ID,
			Amount:    o.TotalAmount,
			Status:    o.Status,
			Customer:  Customer{Name: o.CustomerName(), Email: o.CustomerEmail()},
			CreatedAt: o.CreatedAt,
		})
	}
	return stats, nil
}

// monthlyRevenue buckets non-cancelled orders of the current and previous
// five months, oldest first. Empty months are reported as zero.
func (s *DashboardService) monthlyRevenue(ctx context.Context) ([]MonthRevenue, error) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(revenueMonths - 1), 0)

	out := make([]MonthRevenue, revenueMonths)
	index := make(map[string]int, revenueMonths)
	for i := range out {
		m := first.AddDate(0, i, 0)
		key := m.Format("2006-01")
		out[i] = MonthRevenue{Name: m.Format("Jan"), Month: key, Total: decimal.Zero}
		index[key] = i
	}

	orders, _, err := s.orders.List(ctx, repository.OrderFilter{CreatedAfter: first})
	if err != nil {
		return nil, fmt.Errorf("revenue orders: %w", err)
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		if i, ok := index[o.CreatedAt.UTC().Format("2006-01")]; ok {
			out[i].Total = out[i].Total.Add(o.TotalAmount)
		}
	}
	return out, nil
}
