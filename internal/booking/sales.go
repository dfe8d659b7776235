package booking

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/property-booking/internal/model"
)

// GroupBy selects how sales are grouped.  Selectors do not compose.
type GroupBy string

const (
	GroupByProperty    GroupBy = "property"
	GroupByTransaction GroupBy = "transaction"
	GroupByUser        GroupBy = "user"
)

// SortBy selects the ordering of report groups.
type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByTotal SortBy = "total"
)

// SaleRecord is one booking as seen by the sales report.
type SaleRecord struct {
	BookingID    uint64              `json:"booking_id"`
	PropertyID   uint64              `json:"property_id"`
	PropertyName string              `json:"property_name"`
	RoomID       uint64              `json:"room_id"`
	UserID       uint64              `json:"user_id"`
	UserEmail    string              `json:"user_email"`
	CheckIn      time.Time           `json:"check_in"`
	CheckOut     time.Time           `json:"check_out"`
	TotalPrice   int64               `json:"total_price"`
	Status       model.BookingStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

// SalesFilter narrows the records a tenant's report is built from.
type SalesFilter struct {
	TenantID   uint64
	PropertyID uint64    // 0 means every property of the tenant
	From       time.Time // inclusive, zero means unbounded
	To         time.Time // exclusive, zero means unbounded
}

// ReportOptions controls grouping and ordering.  Empty values default to
// property grouping and ascending date order.
type ReportOptions struct {
	GroupBy    GroupBy
	SortBy     SortBy
	Descending bool
}

// ReportGroup aggregates the sales of one group key.
type ReportGroup struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	Average decimal.Decimal `json:"average"`
	Date    time.Time       `json:"date"` // latest booking date in the group
}

// ReportSummary totals every counted sale.
type ReportSummary struct {
	Count   int             `json:"count"`
	Total   int64           `json:"total"`
	Average decimal.Decimal `json:"average"`
}

// Report is the grouped sales report.
type Report struct {
	GroupBy GroupBy       `json:"group_by"`
	SortBy  SortBy        `json:"sort_by"`
	Summary ReportSummary `json:"summary"`
	Groups  []ReportGroup `json:"groups"`
}

// ParseReportOptions validates raw query values.
func ParseReportOptions(groupBy, sortBy, order string) (ReportOptions, error) {
	opts := ReportOptions{GroupBy: GroupBy(strings.ToLower(groupBy)), SortBy: SortBy(strings.ToLower(sortBy))}
	if opts.GroupBy == "" {
		opts.GroupBy = GroupByProperty
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByDate
	}
	switch strings.ToLower(order) {
	case "", "asc":
	case "desc":
		opts.Descending = true
	default:
		return ReportOptions{}, validationf("order must be asc or desc")
	}
	return opts, opts.validate()
}

func (o ReportOptions) validate() error {
	switch o.GroupBy {
	case GroupByProperty, GroupByTransaction, GroupByUser:
	default:
		return validationf("group_by must be property, transaction or user")
	}
	switch o.SortBy {
	case SortByDate, SortByTotal:
	default:
		return validationf("sort_by must be date or total")
	}
	return nil
}

// countsAsSale reports whether a booking produced revenue.
func countsAsSale(s model.BookingStatus) bool {
	return s == model.StatusConfirmed || s == model.StatusCompleted
}

// Aggregate builds a grouped report from records.  Only CONFIRMED and
// COMPLETED bookings count.  An empty input yields no groups and a zero
// summary.
func Aggregate(records []SaleRecord, opts ReportOptions) (Report, error) {
	if opts.GroupBy == "" {
		opts.GroupBy = GroupByProperty
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByDate
	}
	if err := opts.validate(); err != nil {
		return Report{}, err
	}
	rep := Report{
		GroupBy: opts.GroupBy,
		SortBy:  opts.SortBy,
		Summary: ReportSummary{Average: decimal.Zero},
		Groups:  []ReportGroup{},
	}

	index := map[string]int{}
	for _, rec := range records {
		if !countsAsSale(rec.Status) {
			continue
		}
		key, label := groupKey(rec, opts.GroupBy)
		i, ok := index[key]
		if !ok {
			i = len(rep.Groups)
			index[key] = i
			rep.Groups = append(rep.Groups, ReportGroup{Key: key, Label: label})
		}
		g := &rep.Groups[i]
		g.Count++
		g.Total += rec.TotalPrice
		if rec.CreatedAt.After(g.Date) {
			g.Date = rec.CreatedAt
		}
		rep.Summary.Count++
		rep.Summary.Total += rec.TotalPrice
	}
	for i := range rep.Groups {
		rep.Groups[i].Average = average(rep.Groups[i].Total, rep.Groups[i].Count)
	}
	rep.Summary.Average = average(rep.Summary.Total, rep.Summary.Count)

	less := func(a, b ReportGroup) bool {
		if opts.SortBy == SortByTotal && a.Total != b.Total {
			return a.Total < b.Total
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Key < b.Key
	}
	sort.SliceStable(rep.Groups, func(i, j int) bool {
		if opts.Descending {
			return less(rep.Groups[j], rep.Groups[i])
		}
		return less(rep.Groups[i], rep.Groups[j])
	})
	return rep, nil
}

func groupKey(rec SaleRecord, by GroupBy) (string, string) {
	switch by {
	case GroupByTransaction:
		id := strconv.FormatUint(rec.BookingID, 10)
		return id, "#" + id
	case GroupByUser:
		label := rec.UserEmail
		if label == "" {
			label = "user " + strconv.FormatUint(rec.UserID, 10)
		}
		return strconv.FormatUint(rec.UserID, 10), label
	default:
		label := rec.PropertyName
		if label == "" {
			label = "property " + strconv.FormatUint(rec.PropertyID, 10)
		}
		return strconv.FormatUint(rec.PropertyID, 10), label
	}
}

func average(total int64, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(count))).Round(2)
}

// SalesReport builds the report for the calling tenant.  The filter is
// always scoped to the caller's own properties.
func (s *Service) SalesReport(ctx context.Context, actor Actor, f SalesFilter, opts ReportOptions) (Report, error) {
	if actor.Role != model.RoleTenant {
		return Report{}, ErrForbidden
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return Report{}, ErrInvalidRange
	}
	f.TenantID = actor.UserID
	records, err := s.store.ListSales(ctx, f)
	if err != nil {
		return Report{}, err
	}
	return Aggregate(records, opts)
}
