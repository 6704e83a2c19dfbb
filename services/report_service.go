package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

type ItemSummary struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CustomerSummary struct {
	Name   string          `json:"name"`
	Visits int             `json:"visits"`
	Spent  decimal.Decimal `json:"spent"`
}

type QuickStatistics struct {
	TotalCustomers int             `json:"totalCustomers"`
	TotalSales     int             `json:"totalSales"`
	AvgOrderValue  decimal.Decimal `json:"avgOrderValue"`
	LowStockItems  int             `json:"lowStockItems"`
}

type AnalyticsSummary struct {
	CurrentMonthRevenue   decimal.Decimal   `json:"currentMonthRevenue"`
	MonthGrowth           float64           `json:"monthGrowth"`
	CurrentQuarterRevenue decimal.Decimal   `json:"currentQuarterRevenue"`
	QuarterGrowth         float64           `json:"quarterGrowth"`
	CurrentYearRevenue    decimal.Decimal   `json:"currentYearRevenue"`
	YearGrowth            float64           `json:"yearGrowth"`
	TopServices           []ItemSummary     `json:"topServices"`
	TopProducts           []ItemSummary     `json:"topProducts"`
	TopCustomers          []CustomerSummary `json:"topCustomers"`
	QuickStats            QuickStatistics   `json:"quickStats"`
}

type UpcomingBirthday struct {
	CustomerID uuid.UUID `json:"customerId"`
	Name       string    `json:"name"`
	Date       string    `json:"date"`
	InDays     int       `json:"inDays"`
}

type DashboardOverview struct {
	TotalCustomers       int                  `json:"totalCustomers"`
	TodayRevenue         decimal.Decimal      `json:"todayRevenue"`
	MonthlyRevenue       decimal.Decimal      `json:"monthlyRevenue"`
	TodayAppointments    map[string]int       `json:"todayAppointments"`
	PendingBilling       int                  `json:"pendingBilling"`
	HeldSales            int                  `json:"heldSales"`
	LowStockProducts     []models.Product     `json:"lowStockProducts"`
	UpcomingBirthdays    []UpcomingBirthday   `json:"upcomingBirthdays"`
	RecentSales          []models.Sale        `json:"recentSales"`
	UpcomingAppointments []models.Appointment `json:"upcomingAppointments"`
}

// ReportService aggregates completed sales only; held sales are not revenue.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

func quarterStart(date time.Time) time.Time {
	startMonth := time.Month((int(date.Month())-1)/3*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

// GrowthPercentage compares two periods; growth from zero counts as 100%.
func GrowthPercentage(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// Revenue sums completed sales in [start, end).
func (s *ReportService) Revenue(ctx context.Context, salonID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.WithContext(ctx).Model(&models.Sale{}).
		Where("salon_id = ? AND payment_status = ? AND completed_at >= ? AND completed_at < ?",
			salonID, models.PaymentCompleted, start, end).
		Select("SUM(total)").
		Row().Scan(&total)
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (s *ReportService) topItems(ctx context.Context, salonID uuid.UUID, column string, start, end time.Time, limit int) ([]ItemSummary, error) {
	var rows []ItemSummary
	err := s.db.WithContext(ctx).Table("sale_items").
		Select("sale_items.name AS name, SUM(sale_items.quantity) AS count, SUM(sale_items.line_total) AS revenue").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.salon_id = ? AND sales.payment_status = ? AND sales.completed_at >= ? AND sales.completed_at < ?",
			salonID, models.PaymentCompleted, start, end).
		Where("sale_items." + column + " IS NOT NULL").
		Group("sale_items.name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *ReportService) topCustomers(ctx context.Context, salonID uuid.UUID, start, end time.Time, limit int) ([]CustomerSummary, error) {
	type row struct {
		FirstName string
		LastName  string
		Visits    int
		Spent     decimal.Decimal
	}
	var rows []row
	err := s.db.WithContext(ctx).Table("sales").
		Select("customers.first_name, customers.last_name, COUNT(sales.id) AS visits, SUM(sales.total) AS spent").
		Joins("JOIN customers ON customers.id = sales.customer_id").
		Where("sales.salon_id = ? AND sales.payment_status = ? AND sales.completed_at >= ? AND sales.completed_at < ? AND customers.deleted_at IS NULL",
			salonID, models.PaymentCompleted, start, end).
		Group("customers.id, customers.first_name, customers.last_name").
		Order("spent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]CustomerSummary, 0, len(rows))
	for _, r := range rows {
		c := models.Customer{FirstName: r.FirstName, LastName: r.LastName}
		out = append(out, CustomerSummary{Name: c.FullName(), Visits: r.Visits, Spent: r.Spent})
	}
	return out, nil
}

func (s *ReportService) lowStock(ctx context.Context, salonID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("salon_id = ? AND status = ? AND stock_quantity <= min_stock_level", salonID, models.ProductActive).
		Order("stock_quantity ASC").
		Find(&products).Error
	return products, err
}

func (s *ReportService) quickStats(ctx context.Context, salonID uuid.UUID) (QuickStatistics, error) {
	var stats QuickStatistics
	db := s.db.WithContext(ctx)

	var customers, sales int64
	if err := db.Model(&models.Customer{}).Where("salon_id = ?", salonID).Count(&customers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Sale{}).
		Where("salon_id = ? AND payment_status = ?", salonID, models.PaymentCompleted).
		Count(&sales).Error; err != nil {
		return stats, err
	}
	stats.TotalCustomers = int(customers)
	stats.TotalSales = int(sales)

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Sale{}).
		Where("salon_id = ? AND payment_status = ?", salonID, models.PaymentCompleted).
		Select("SUM(total)").Row().Scan(&revenue); err != nil {
		return stats, err
	}
	if sales > 0 && revenue.Valid {
		stats.AvgOrderValue = revenue.Decimal.Div(decimal.NewFromInt(sales)).Round(2)
	}

	low, err := s.lowStock(ctx, salonID)
	if err != nil {
		return stats, err
	}
	stats.LowStockItems = len(low)
	return stats, nil
}

// Analytics builds the owner report: revenue by month, quarter and year with
// growth against the previous period, and this month's leaders.
func (s *ReportService) Analytics(ctx context.Context, salonID uuid.UUID) (*AnalyticsSummary, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	now := s.now()
	loc := now.Location()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	qStart := quarterStart(now)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	periods := []struct {
		start, end time.Time
	}{
		{monthStart, monthStart.AddDate(0, 1, 0)},
		{monthStart.AddDate(0, -1, 0), monthStart},
		{qStart, qStart.AddDate(0, 3, 0)},
		{qStart.AddDate(0, -3, 0), qStart},
		{yearStart, yearStart.AddDate(1, 0, 0)},
		{yearStart.AddDate(-1, 0, 0), yearStart},
	}
	revenue := make([]decimal.Decimal, len(periods))
	for i, p := range periods {
		r, err := s.Revenue(ctx, salonID, p.start, p.end)
		if err != nil {
			return nil, err
		}
		revenue[i] = r
	}

	monthEnd := periods[0].end
	topServices, err := s.topItems(ctx, salonID, "service_id", monthStart, monthEnd, 5)
	if err != nil {
		return nil, err
	}
	topProducts, err := s.topItems(ctx, salonID, "product_id", monthStart, monthEnd, 5)
	if err != nil {
		return nil, err
	}
	topCustomers, err := s.topCustomers(ctx, salonID, monthStart, monthEnd, 5)
	if err != nil {
		return nil, err
	}
	stats, err := s.quickStats(ctx, salonID)
	if err != nil {
		return nil, err
	}

	return &AnalyticsSummary{
		CurrentMonthRevenue:   revenue[0],
		MonthGrowth:           GrowthPercentage(revenue[0], revenue[1]),
		CurrentQuarterRevenue: revenue[2],
		QuarterGrowth:         GrowthPercentage(revenue[2], revenue[3]),
		CurrentYearRevenue:    revenue[4],
		YearGrowth:            GrowthPercentage(revenue[4], revenue[5]),
		TopServices:           topServices,
		TopProducts:           topProducts,
		TopCustomers:          topCustomers,
		QuickStats:            stats,
	}, nil
}

// upcomingBirthdays returns birthdays in the next `days` days, soonest first.
func upcomingBirthdays(customers []models.Customer, today time.Time, days int) []UpcomingBirthday {
	today = utils.BeginningOfDay(today)
	var out []UpcomingBirthday
	for _, c := range customers {
		if c.DateOfBirth == nil {
			continue
		}
		next := time.Date(today.Year(), c.DateOfBirth.Month(), c.DateOfBirth.Day(), 0, 0, 0, 0, today.Location())
		if next.Before(today) {
			next = next.AddDate(1, 0, 0)
		}
		in := utils.DaysBetween(today, next)
		if in > days {
			continue
		}
		out = append(out, UpcomingBirthday{
			CustomerID: c.ID,
			Name:       c.FullName(),
			Date:       next.Format(utils.DateLayout),
			InDays:     in,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InDays < out[j].InDays })
	return out
}

func (s *ReportService) Dashboard(ctx context.Context, salonID uuid.UUID) (*DashboardOverview, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	now := s.now()
	dayStart := utils.BeginningOfDay(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	today := now.Format(utils.DateLayout)

	out := &DashboardOverview{TodayAppointments: map[string]int{}}

	var customers []models.Customer
	if err := db.Select("id", "first_name", "last_name", "date_of_birth").
		Where("salon_id = ?", salonID).Find(&customers).Error; err != nil {
		return nil, err
	}
	out.TotalCustomers = len(customers)
	out.UpcomingBirthdays = upcomingBirthdays(customers, now, 7)

	var err error
	if out.TodayRevenue, err = s.Revenue(ctx, salonID, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	if out.MonthlyRevenue, err = s.Revenue(ctx, salonID, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int
	}
	if err := db.Model(&models.Appointment{}).
		Select("status, COUNT(*) AS count").
		Where("salon_id = ? AND date = ?", salonID, today).
		Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		out.TodayAppointments[r.Status] = r.Count
	}

	var pending, held int64
	if err := db.Model(&models.Appointment{}).
		Where("salon_id = ? AND billing_generated = ? AND status IN ?", salonID, false,
			[]models.AppointmentStatus{models.StatusInProgress, models.StatusCompleted}).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Sale{}).
		Where("salon_id = ? AND payment_status = ?", salonID, models.PaymentPending).
		Count(&held).Error; err != nil {
		return nil, err
	}
	out.PendingBilling = int(pending)
	out.HeldSales = int(held)

	if out.LowStockProducts, err = s.lowStock(ctx, salonID); err != nil {
		return nil, err
	}

	if err := db.Preload("Customer").
		Where("salon_id = ? AND payment_status = ?", salonID, models.PaymentCompleted).
		Order("completed_at DESC").Limit(5).
		Find(&out.RecentSales).Error; err != nil {
		return nil, err
	}

	if err := db.Preload("Customer").Preload("Service").
		Where("salon_id = ? AND date = ? AND status IN ?", salonID, today,
			[]models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed}).
		Order("start_time ASC").Limit(10).
		Find(&out.UpcomingAppointments).Error; err != nil {
		return nil, err
	}
	return out, nil
}
