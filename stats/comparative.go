package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"salesflow/models"
)

// Window selects which movements enter a comparative calculation.
type Window int

const (
	// WindowAllTime considers every movement.
	WindowAllTime Window = iota
	// WindowThisMonth considers only movements in the calendar month of the
	// reference time.
	WindowThisMonth
)

// Comparative reports how one client performs against the arithmetic mean of
// a peer group. Percentages are formatted to two decimals and may be
// negative when the client trails the mean.
type Comparative struct {
	ClientRevenue string `json:"clientRevenue"`
	PeerRevenue   string `json:"peerMeanRevenue"`
	RevenuePct    string `json:"revenuePct"`
	ClientOrders  int    `json:"clientOrders"`
	PeerOrders    string `json:"peerMeanOrders"`
	OrdersPct     string `json:"ordersPct"`
}

// windowRevenue sums movement revenue inside the window. The orders return is
// the count of movements inside the window.
func windowRevenue(c *models.Client, w Window, ref time.Time) (decimal.Decimal, int) {
	revenue := decimal.Zero
	orders := 0
	for _, m := range c.Movements {
		if w == WindowThisMonth &&
			(m.DateOfOrder.Year() != ref.Year() || m.DateOfOrder.Month() != ref.Month()) {
			continue
		}
		revenue = revenue.Add(m.Revenue())
		orders++
	}
	return revenue, orders
}

// percentDiff returns (value-mean)/mean*100 to two decimals, or "0.00" when
// the mean is zero.
func percentDiff(value, mean decimal.Decimal) string {
	if mean.IsZero() {
		return "0.00"
	}
	return value.Sub(mean).Div(mean).Mul(decimal.NewFromInt(100)).StringFixed(2)
}

// ComparativeReport carries the all-time and current-month comparisons for
// one entity.
type ComparativeReport struct {
	AllTime   Comparative `json:"allTime"`
	ThisMonth Comparative `json:"thisMonth"`
}

// CompareToPeers measures a client against the arithmetic mean of its peers
// over the given window. The client itself is excluded from the peer group
// even when present in peers. An empty peer group yields zero percentages.
func CompareToPeers(client *models.Client, peers []*models.Client, w Window, ref time.Time) Comparative {
	clientRevenue, clientOrders := windowRevenue(client, w, ref)

	out := Comparative{
		ClientRevenue: clientRevenue.StringFixed(2),
		ClientOrders:  clientOrders,
		PeerRevenue:   "0.00",
		PeerOrders:    "0.00",
		RevenuePct:    "0.00",
		OrdersPct:     "0.00",
	}

	peerRevenue := decimal.Zero
	peerOrders := decimal.Zero
	count := 0
	for _, p := range peers {
		if p.ID == client.ID {
			continue
		}
		revenue, orders := windowRevenue(p, w, ref)
		peerRevenue = peerRevenue.Add(revenue)
		peerOrders = peerOrders.Add(decimal.NewFromInt(int64(orders)))
		count++
	}
	if count == 0 {
		return out
	}

	n := decimal.NewFromInt(int64(count))
	meanRevenue := peerRevenue.Div(n)
	meanOrders := peerOrders.Div(n)

	out.PeerRevenue = meanRevenue.StringFixed(2)
	out.PeerOrders = meanOrders.StringFixed(2)
	out.RevenuePct = percentDiff(clientRevenue, meanRevenue)
	out.OrdersPct = percentDiff(decimal.NewFromInt(int64(clientOrders)), meanOrders)
	return out
}

// ClientReport compares a client against its peers over both windows.
func ClientReport(client *models.Client, peers []*models.Client, ref time.Time) ComparativeReport {
	return ComparativeReport{
		AllTime:   CompareToPeers(client, peers, WindowAllTime, ref),
		ThisMonth: CompareToPeers(client, peers, WindowThisMonth, ref),
	}
}

// agentWindow sums revenue and orders over all of an agent's clients inside
// the window.
func agentWindow(a *models.Agent, w Window, ref time.Time) (decimal.Decimal, int) {
	revenue := decimal.Zero
	orders := 0
	for _, c := range a.Clients {
		r, o := windowRevenue(c, w, ref)
		revenue = revenue.Add(r)
		orders += o
	}
	return revenue, orders
}

// CompareAgentToPeers measures an agent against the arithmetic mean of the
// other agents over the given window.
func CompareAgentToPeers(agent *models.Agent, peers []*models.Agent, w Window, ref time.Time) Comparative {
	agentRevenue, agentOrders := agentWindow(agent, w, ref)

	out := Comparative{
		ClientRevenue: agentRevenue.StringFixed(2),
		ClientOrders:  agentOrders,
		PeerRevenue:   "0.00",
		PeerOrders:    "0.00",
		RevenuePct:    "0.00",
		OrdersPct:     "0.00",
	}

	peerRevenue := decimal.Zero
	peerOrders := decimal.Zero
	count := 0
	for _, p := range peers {
		if p.ID == agent.ID {
			continue
		}
		revenue, orders := agentWindow(p, w, ref)
		peerRevenue = peerRevenue.Add(revenue)
		peerOrders = peerOrders.Add(decimal.NewFromInt(int64(orders)))
		count++
	}
	if count == 0 {
		return out
	}

	n := decimal.NewFromInt(int64(count))
	meanRevenue := peerRevenue.Div(n)
	meanOrders := peerOrders.Div(n)

	out.PeerRevenue = meanRevenue.StringFixed(2)
	out.PeerOrders = meanOrders.StringFixed(2)
	out.RevenuePct = percentDiff(agentRevenue, meanRevenue)
	out.OrdersPct = percentDiff(decimal.NewFromInt(int64(agentOrders)), meanOrders)
	return out
}

// AgentReport compares an agent against the other agents over both windows.
func AgentReport(agent *models.Agent, peers []*models.Agent, ref time.Time) ComparativeReport {
	return ComparativeReport{
		AllTime:   CompareAgentToPeers(agent, peers, WindowAllTime, ref),
		ThisMonth: CompareAgentToPeers(agent, peers, WindowThisMonth, ref),
	}
}
