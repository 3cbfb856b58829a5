package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tourledger/internal/domain"
	"tourledger/internal/domain/models"
	"tourledger/internal/repositories"
	"tourledger/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	DefaultDashboardDays = 30
	dashboardTopItems    = 10
	dashboardTopTrips    = 5
)

// ReportsService computes the financial reports on demand; nothing is cached.
type ReportsService struct {
	ReportsRepo repositories.ReportsRepository
	TripRepo    repositories.TripRepository
	CatalogRepo repositories.CatalogRepository
	RequestID   string
	Now         func() time.Time
}

func (s ReportsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultPeriod is first-of-month to today.
func (s ReportsService) DefaultPeriod() domain.Period {
	return domain.DefaultPeriod(s.now())
}

// RevenueForPeriod compares prices of bookings created in the period with payments received in it.
// The two sums come from different entity sets and date fields.
func (s ReportsService) RevenueForPeriod(ctx context.Context, p domain.Period) (models.RevenueSummary, error) {
	expected, count, err := s.ReportsRepo.BookedRevenue(ctx, p)
	if err != nil {
		return models.RevenueSummary{}, err
	}
	confirmed, err := s.ReportsRepo.PaymentsReceived(ctx, p)
	if err != nil {
		return models.RevenueSummary{}, err
	}
	return models.RevenueSummary{
		ExpectedRevenue:  expected,
		ConfirmedRevenue: confirmed,
		PendingRevenue:   expected.Sub(confirmed),
		BookingCount:     count,
	}, nil
}

// ExpensesForPeriod treats internal expenses as both expected and paid the moment they are recorded.
func (s ReportsService) ExpensesForPeriod(ctx context.Context, p domain.Period) (models.ExpenseSummary, error) {
	quoted, count, err := s.ReportsRepo.AcceptedQuotationsDue(ctx, p)
	if err != nil {
		return models.ExpenseSummary{}, err
	}
	internal, err := s.ReportsRepo.InternalExpensesSpent(ctx, p)
	if err != nil {
		return models.ExpenseSummary{}, err
	}
	settled, err := s.ReportsRepo.SupplierPaymentsMade(ctx, p)
	if err != nil {
		return models.ExpenseSummary{}, err
	}
	expected := quoted.Add(internal)
	paid := settled.Add(internal)
	return models.ExpenseSummary{
		ExpectedExpense:  expected,
		PaidExpense:      paid,
		PendingExpense:   expected.Sub(paid),
		QuotationCount:   count,
		InternalExpenses: internal,
	}, nil
}

func (s ReportsService) Receivables(ctx context.Context) ([]models.Receivable, error) {
	return s.ReportsRepo.Receivables(ctx)
}

func (s ReportsService) Payables(ctx context.Context) ([]models.Payable, error) {
	return s.ReportsRepo.Payables(ctx)
}

// PerTripProfitAndLoss reports every confirmed or completed trip, most profitable first.
func (s ReportsService) PerTripProfitAndLoss(ctx context.Context) ([]models.TripResult, error) {
	rows, err := s.ReportsRepo.TripResults(ctx, models.TripConfirmed, models.TripCompleted)
	if err != nil {
		return nil, err
	}
	out := make([]models.TripResult, 0, len(rows))
	for _, r := range rows {
		cost := r.Cost.Total()
		profit := r.Revenue.Sub(cost)
		status := models.ResultLoss
		if profit.IsPositive() {
			status = models.ResultProfit
		}
		out = append(out, models.TripResult{
			TripID:      r.TripID,
			TripTitle:   r.Title,
			DepartureAt: r.DepartureAt,
			Revenue:     r.Revenue,
			Cost:        cost,
			Profit:      profit,
			MarginPct:   domain.MarginPct(profit, r.Revenue),
			Status:      status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit.GreaterThan(out[j].Profit)
	})
	return out, nil
}

// Dashboard consolidates the last `days` days of revenue and expenses with the open balances.
func (s ReportsService) Dashboard(ctx context.Context, days int) (models.Dashboard, error) {
	if days <= 0 {
		days = DefaultDashboardDays
	}
	period := domain.LastDays(s.now(), days)

	revenue, err := s.RevenueForPeriod(ctx, period)
	if err != nil {
		return models.Dashboard{}, err
	}
	expenses, err := s.ExpensesForPeriod(ctx, period)
	if err != nil {
		return models.Dashboard{}, err
	}
	receivables, err := s.Receivables(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	payables, err := s.Payables(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}
	trips, err := s.PerTripProfitAndLoss(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}

	totalReceivable := decimal.Zero
	for _, r := range receivables {
		totalReceivable = totalReceivable.Add(r.Balance)
	}
	totalPayable := decimal.Zero
	for _, p := range payables {
		totalPayable = totalPayable.Add(p.Balance)
	}

	confirmedProfit := revenue.ConfirmedRevenue.Sub(expenses.PaidExpense)
	d := models.Dashboard{
		From:     period.From,
		To:       period.To,
		Days:     days,
		Revenue:  revenue,
		Expenses: expenses,
		Profit: models.ProfitSummary{
			Confirmed:          confirmedProfit,
			Projected:          revenue.ExpectedRevenue.Sub(expenses.ExpectedExpense),
			ConfirmedMarginPct: domain.MarginPct(confirmedProfit, revenue.ConfirmedRevenue),
		},
		Receivables: models.ReceivablesSummary{
			Total: totalReceivable,
			Count: len(receivables),
			Top:   headReceivables(receivables, dashboardTopItems),
		},
		Payables: models.PayablesSummary{
			Total: totalPayable,
			Count: len(payables),
			Top:   headPayables(payables, dashboardTopItems),
		},
		NetProjectedBalance: revenue.ConfirmedRevenue.Sub(expenses.PaidExpense).Add(totalReceivable).Sub(totalPayable),
		TopTrips:            trips,
	}
	if len(d.TopTrips) > dashboardTopTrips {
		d.TopTrips = d.TopTrips[:dashboardTopTrips]
	}
	utils.LogEvent(s.RequestID, "reports", "dashboard", fmt.Sprintf("days=%d receivables=%d payables=%d", days, len(receivables), len(payables)))
	return d, nil
}

func headReceivables(in []models.Receivable, n int) []models.Receivable {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func headPayables(in []models.Payable, n int) []models.Payable {
	if len(in) > n {
		return in[:n]
	}
	return in
}

// TripQuotations compares the supplier offers of a trip per service type. SelectedTotal
// sums the offers marked as chosen.
func (s ReportsService) TripQuotations(ctx context.Context, tripID int64) (models.TripQuotations, error) {
	trip, err := s.TripRepo.GetByID(ctx, nil, tripID)
	if err != nil {
		return models.TripQuotations{}, err
	}
	lines, err := s.ReportsRepo.TripQuotations(ctx, tripID)
	if err != nil {
		return models.TripQuotations{}, err
	}

	out := models.TripQuotations{Trip: trip, Groups: []models.QuotationGroup{}, Count: len(lines), SelectedTotal: decimal.Zero}
	for _, l := range lines {
		n := len(out.Groups)
		if n == 0 || out.Groups[n-1].ServiceType != l.ServiceType {
			out.Groups = append(out.Groups, models.QuotationGroup{ServiceType: l.ServiceType, Lowest: l.QuotedAmount})
			n++
		}
		g := &out.Groups[n-1]
		g.Quotations = append(g.Quotations, l)
		if l.QuotedAmount.LessThan(g.Lowest) {
			g.Lowest = l.QuotedAmount
		}
		if l.Selected {
			sel := l
			g.Selected = &sel
			out.SelectedTotal = out.SelectedTotal.Add(l.QuotedAmount)
		}
	}
	utils.LogEvent(s.RequestID, "reports", "trip_quotations", fmt.Sprintf("trip_id=%d quotations=%d groups=%d", tripID, out.Count, len(out.Groups)))
	return out, nil
}

// TripFinancialSummary is the per-trip financial picture: costs, collections, break-even,
// viability and suggested prices.
func (s ReportsService) TripFinancialSummary(ctx context.Context, tripID int64) (models.TripFinancialSummary, error) {
	trip, err := s.TripRepo.GetByID(ctx, nil, tripID)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}
	cost, err := s.TripRepo.Cost(ctx, nil, tripID)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}
	lines, err := s.TripRepo.CostByCategory(ctx, nil, tripID)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}
	count, expected, collected, err := s.ReportsRepo.TripBookingStats(ctx, nil, tripID)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}
	avg, err := s.TripRepo.AvgPackagePrice(ctx, nil, tripID)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}

	capacity := 0
	if trip.VehicleTypeID != nil {
		vt, err := s.CatalogRepo.GetVehicleType(ctx, nil, *trip.VehicleTypeID)
		if err != nil && !domain.IsNotFound(err) {
			return models.TripFinancialSummary{}, err
		}
		capacity = vt.Capacity
	}
	seats := capacity
	if seats <= 0 {
		seats = count
	}

	total := cost.Total()
	sum := models.TripFinancialSummary{
		Trip:               trip,
		Cost:               cost,
		TotalCost:          total,
		CostByCategory:     mergeCostLines(lines, cost.TransportFallback),
		BookingCount:       count,
		AvgPackagePrice:    avg.Round(2),
		ExpectedRevenue:    expected,
		Collected:          collected,
		ReceivableBalance:  expected.Sub(collected),
		ProjectedProfit:    expected.Sub(total),
		CurrentProfit:      collected.Sub(total),
		BreakEvenOccupancy: domain.BreakEvenOccupancy(total, avg),
		Viability:          domain.Viability(total, avg, expected, count, trip.MinOccupancy),
	}
	if seats > 0 {
		sum.CostPerSeat = total.Div(decimal.NewFromInt(int64(seats))).Round(2)
		sum.SuggestedPrice = domain.SuggestedPrice(sum.CostPerSeat, trip.DesiredMarginPct)
		sum.SuggestedPromoPrice = domain.SuggestedPrice(sum.CostPerSeat, trip.PromoMarginPct)
		if sum.SuggestedPrice.IsPositive() {
			sum.ProfitPerSeat = sum.SuggestedPrice.Sub(sum.CostPerSeat)
		}
		if sum.SuggestedPromoPrice.IsPositive() {
			sum.PromoProfitPerSeat = sum.SuggestedPromoPrice.Sub(sum.CostPerSeat)
		}
	}

	margin, similar, err := s.historicalMargin(ctx, trip)
	if err != nil {
		return models.TripFinancialSummary{}, err
	}
	sum.SuggestedMarginPct = margin
	sum.SimilarTrips = similar
	return sum, nil
}

// historicalMargin averages the realised margin of completed trips to the same destination.
func (s ReportsService) historicalMargin(ctx context.Context, trip models.Trip) (*decimal.Decimal, int, error) {
	rows, err := s.ReportsRepo.TripResults(ctx, models.TripCompleted)
	if err != nil {
		return nil, 0, err
	}
	var margins []decimal.Decimal
	for _, r := range rows {
		if r.TripID == trip.ID || r.Destination != trip.Destination || !r.Revenue.IsPositive() {
			continue
		}
		margins = append(margins, domain.MarginPct(r.Revenue.Sub(r.Cost.Total()), r.Revenue))
	}
	if len(margins) == 0 {
		return nil, 0, nil
	}
	avg := decimal.Avg(margins[0], margins[1:]...).Round(2)
	return &avg, len(margins), nil
}

// mergeCostLines folds repeated categories together, keeping first-seen order, and books the
// vehicle's base transport cost under transport.
func mergeCostLines(lines []models.CostLine, transportFallback decimal.Decimal) []models.CostLine {
	if transportFallback.IsPositive() {
		lines = append(lines, models.CostLine{Category: models.ServiceTransport, Amount: transportFallback})
	}
	out := make([]models.CostLine, 0, len(lines))
	idx := map[string]int{}
	for _, l := range lines {
		if i, ok := idx[l.Category]; ok {
			out[i].Amount = out[i].Amount.Add(l.Amount)
			continue
		}
		idx[l.Category] = len(out)
		out = append(out, l)
	}
	return out
}
