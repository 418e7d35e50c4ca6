// Package stats provides pure, stateless aggregation functions over the
// canonical client collection. Functions never mutate their inputs and are
// safe to call concurrently.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

// IgnoreList holds article descriptions excluded from brand and article
// rankings (freight, core returns and similar non-product rows). It is
// injected configuration, never package state.
type IgnoreList map[string]struct{}

// NewIgnoreList builds an IgnoreList from configured article names.
func NewIgnoreList(names []string) IgnoreList {
	ignore := make(IgnoreList, len(names))
	for _, n := range names {
		ignore[n] = struct{}{}
	}
	return ignore
}

func (l IgnoreList) contains(name string) bool {
	_, ok := l[name]
	return ok
}

// BrandData is one entry of the top-brands ranking.
type BrandData struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// DistributionEntry is one slice of the sales distribution chart.
type DistributionEntry struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// MonthlySeries carries parallel arrays keyed by zero-padded "YYYY-MM"
// months in ascending order.
type MonthlySeries struct {
	Months     []string          `json:"months"`
	Revenue    []decimal.Decimal `json:"revenue"`
	NetRevenue []decimal.Decimal `json:"netRevenue"`
	Orders     []int             `json:"orders"`
}

// TotalRevenue sums PriceSold over all clients' movement details, formatted
// to two decimals.
func TotalRevenue(clients []*models.Client) string {
	total := decimal.Zero
	for _, c := range clients {
		total = total.Add(c.TotalRevenue)
	}
	return total.StringFixed(2)
}

// NetRevenue sums priceSold - |priceBought|*quantity per line item,
// formatted to two decimals.
func NetRevenue(clients []*models.Client) string {
	total := decimal.Zero
	for _, c := range clients {
		for _, m := range c.Movements {
			for _, d := range m.Details {
				cost := d.PriceBought.Abs().Mul(d.Quantity)
				total = total.Add(d.PriceSold.Sub(cost))
			}
		}
	}
	return total.StringFixed(2)
}

// TotalOrders counts distinct (clientId, movementId) pairs across the set.
// Movement ids are only unique within one client, so the pair is the key.
func TotalOrders(clients []*models.Client) int {
	seen := make(map[[2]string]struct{})
	for _, c := range clients {
		for _, m := range c.Movements {
			seen[[2]string{c.ID, m.ID}] = struct{}{}
		}
	}
	return len(seen)
}

// AllMovements flattens the clients' movement lists, preserving order.
func AllMovements(clients []*models.Client) []models.Movement {
	var out []models.Movement
	for _, c := range clients {
		out = append(out, c.Movements...)
	}
	return out
}

// TopBrands ranks brands by summed line item quantity. Brand names are
// matched case-insensitively after trimming but displayed with their
// first-seen casing. Line items on the ignore list do not count. Ties keep
// first-encountered order.
func TopBrands(movements []models.Movement, ignore IgnoreList, limit int) []BrandData {
	type brandAcc struct {
		label    string
		quantity decimal.Decimal
	}

	acc := make(map[string]*brandAcc)
	var keys []string

	for _, m := range movements {
		for _, d := range m.Details {
			if d.Brand == "" || ignore.contains(d.Name) {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(d.Brand))
			entry, ok := acc[key]
			if !ok {
				entry = &brandAcc{label: d.Brand}
				acc[key] = entry
				keys = append(keys, key)
			}
			entry.quantity = entry.quantity.Add(d.Quantity)
		}
	}

	ranked := make([]*brandAcc, 0, len(keys))
	for _, key := range keys {
		ranked = append(ranked, acc[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].quantity.GreaterThan(ranked[j].quantity)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]BrandData, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, BrandData{Label: b.label, Value: b.quantity})
	}
	return out
}

// SalesDistribution aggregates revenue per client id (repeated clients are
// summed), sorts descending by revenue and keeps the top mobileLimit or
// topLimit entries depending on the isMobile flag.
func SalesDistribution(clients []*models.Client, isMobile bool, mobileLimit, topLimit int) []DistributionEntry {
	type clientAcc struct {
		label   string
		revenue decimal.Decimal
	}

	acc := make(map[string]*clientAcc)
	var order []string

	for _, c := range clients {
		entry, ok := acc[c.ID]
		if !ok {
			entry = &clientAcc{label: c.Name}
			acc[c.ID] = entry
			order = append(order, c.ID)
		}
		entry.revenue = entry.revenue.Add(c.TotalRevenue)
	}

	ranked := make([]*clientAcc, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, acc[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].revenue.GreaterThan(ranked[j].revenue)
	})

	limit := topLimit
	if isMobile {
		limit = mobileLimit
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]DistributionEntry, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, DistributionEntry{Label: c.label, Value: c.revenue})
	}
	return out
}

// Monthly groups movements by "YYYY-MM" of their order date, deduplicated by
// (clientId, movementId), summing revenue and net revenue and counting
// orders per month. Months come back sorted ascending, which for zero-padded
// keys is chronological order.
func Monthly(clients []*models.Client) MonthlySeries {
	type monthAcc struct {
		revenue    decimal.Decimal
		netRevenue decimal.Decimal
		orders     int
	}

	seen := make(map[[2]string]struct{})
	acc := make(map[string]*monthAcc)

	for _, c := range clients {
		for _, m := range c.Movements {
			key := [2]string{c.ID, m.ID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			month := m.DateOfOrder.Format("2006-01")
			entry, ok := acc[month]
			if !ok {
				entry = &monthAcc{}
				acc[month] = entry
			}

			for _, d := range m.Details {
				cost := d.PriceBought.Abs().Mul(d.Quantity)
				entry.revenue = entry.revenue.Add(d.PriceSold)
				entry.netRevenue = entry.netRevenue.Add(d.PriceSold.Sub(cost))
			}
			entry.orders++
		}
	}

	months := make([]string, 0, len(acc))
	for month := range acc {
		months = append(months, month)
	}
	sort.Strings(months)

	series := MonthlySeries{
		Months:     months,
		Revenue:    make([]decimal.Decimal, 0, len(months)),
		NetRevenue: make([]decimal.Decimal, 0, len(months)),
		Orders:     make([]int, 0, len(months)),
	}
	for _, month := range months {
		entry := acc[month]
		series.Revenue = append(series.Revenue, entry.revenue)
		series.NetRevenue = append(series.NetRevenue, entry.netRevenue)
		series.Orders = append(series.Orders, entry.orders)
	}
	return series
}

// YearlyOrders rolls the monthly series up into per-year order counts,
// years ascending.
func YearlyOrders(series MonthlySeries) (years []string, orders []int) {
	acc := make(map[string]int)
	for i, month := range series.Months {
		year := month[:4]
		acc[year] += series.Orders[i]
	}

	years = make([]string, 0, len(acc))
	for year := range acc {
		years = append(years, year)
	}
	sort.Strings(years)

	orders = make([]int, 0, len(years))
	for _, year := range years {
		orders = append(orders, acc[year])
	}
	return years, orders
}

// TotalQuantityPerArticle sums quantity per article id across the movements.
func TotalQuantityPerArticle(movements []models.Movement) map[string]decimal.Decimal {
	acc := make(map[string]decimal.Decimal)
	for _, m := range movements {
		for _, d := range m.Details {
			acc[d.ArticleID] = acc[d.ArticleID].Add(d.Quantity)
		}
	}
	return acc
}

// ArticleData is one entry of the top-articles ranking.
type ArticleData struct {
	ArticleID string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TopArticleTypes ranks article descriptions by summed quantity, skipping
// ignore-list entries. Ties keep first-encountered order.
func TopArticleTypes(movements []models.Movement, ignore IgnoreList, limit int) []ArticleData {
	type articleAcc struct {
		id       string
		name     string
		quantity decimal.Decimal
	}

	acc := make(map[string]*articleAcc)
	var order []string

	for _, m := range movements {
		for _, d := range m.Details {
			if ignore.contains(d.Name) {
				continue
			}
			entry, ok := acc[d.Name]
			if !ok {
				entry = &articleAcc{id: d.ArticleID, name: d.Name}
				acc[d.Name] = entry
				order = append(order, d.Name)
			}
			entry.quantity = entry.quantity.Add(d.Quantity)
		}
	}

	ranked := make([]*articleAcc, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, acc[name])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].quantity.GreaterThan(ranked[j].quantity)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]ArticleData, 0, len(ranked))
	for _, a := range ranked {
		out = append(out, ArticleData{ArticleID: a.id, Name: a.name, Quantity: a.quantity})
	}
	return out
}

// TotalSpentForYear sums movement revenue for orders placed in the given
// calendar year, formatted to two decimals.
func TotalSpentForYear(movements []models.Movement, year int) string {
	total := decimal.Zero
	for _, m := range movements {
		if m.DateOfOrder.Year() == year {
			total = total.Add(m.Revenue())
		}
	}
	return total.StringFixed(2)
}

// MonthlyRevenueForDate reports revenue and net revenue for the calendar
// month containing ref, both formatted to two decimals.
func MonthlyRevenueForDate(movements []models.Movement, ref time.Time) (revenue, netRevenue string) {
	totalRevenue := decimal.Zero
	totalNet := decimal.Zero
	for _, m := range movements {
		if m.DateOfOrder.Year() != ref.Year() || m.DateOfOrder.Month() != ref.Month() {
			continue
		}
		for _, d := range m.Details {
			cost := d.PriceBought.Abs().Mul(d.Quantity)
			totalRevenue = totalRevenue.Add(d.PriceSold)
			totalNet = totalNet.Add(d.PriceSold.Sub(cost))
		}
	}
	return totalRevenue.StringFixed(2), totalNet.StringFixed(2)
}
