package stats

import (
	"testing"
	"time"

	"salesflow/models"
)

func clientWithRevenue(id, revenue string, date time.Time) *models.Client {
	return &models.Client{
		ID: id,
		Movements: []models.Movement{{
			ID:          "m-" + id,
			DateOfOrder: date,
			Details:     []models.LineItem{{PriceSold: dec(revenue), Quantity: dec("1")}},
		}},
	}
}

func TestCompareToPeersAboveMean(t *testing.T) {
	ref := day(2024, time.June, 15)
	client := clientWithRevenue("1", "300", ref)
	peers := []*models.Client{
		client, // must be excluded from its own peer group
		clientWithRevenue("2", "100", ref),
		clientWithRevenue("3", "200", ref),
	}

	got := CompareToPeers(client, peers, WindowAllTime, ref)
	if got.PeerRevenue != "150.00" {
		t.Errorf("peer mean revenue = %s, want 150.00", got.PeerRevenue)
	}
	if got.RevenuePct != "100.00" {
		t.Errorf("revenue pct = %s, want 100.00", got.RevenuePct)
	}
	if got.ClientOrders != 1 || got.OrdersPct != "0.00" {
		t.Errorf("orders: got %d pct %s", got.ClientOrders, got.OrdersPct)
	}
}

func TestCompareToPeersBelowMean(t *testing.T) {
	ref := day(2024, time.June, 15)
	client := clientWithRevenue("1", "50", ref)
	peers := []*models.Client{clientWithRevenue("2", "100", ref)}

	got := CompareToPeers(client, peers, WindowAllTime, ref)
	if got.RevenuePct != "-50.00" {
		t.Errorf("revenue pct = %s, want -50.00", got.RevenuePct)
	}
}

func TestCompareToPeersEmptyPeerGroup(t *testing.T) {
	ref := day(2024, time.June, 15)
	client := clientWithRevenue("1", "300", ref)

	got := CompareToPeers(client, nil, WindowAllTime, ref)
	if got.RevenuePct != "0.00" || got.OrdersPct != "0.00" {
		t.Errorf("empty peers: got %s / %s, want 0.00 / 0.00", got.RevenuePct, got.OrdersPct)
	}
	if got.ClientRevenue != "300.00" {
		t.Errorf("client revenue = %s, want 300.00", got.ClientRevenue)
	}
}

func TestCompareToPeersMonthWindow(t *testing.T) {
	ref := day(2024, time.June, 15)
	client := &models.Client{
		ID: "1",
		Movements: []models.Movement{
			{ID: "a", DateOfOrder: day(2024, time.June, 2), Details: []models.LineItem{{PriceSold: dec("40")}}},
			{ID: "b", DateOfOrder: day(2024, time.May, 2), Details: []models.LineItem{{PriceSold: dec("500")}}},
		},
	}
	peers := []*models.Client{clientWithRevenue("2", "20", day(2024, time.June, 5))}

	got := CompareToPeers(client, peers, WindowThisMonth, ref)
	if got.ClientRevenue != "40.00" {
		t.Errorf("windowed client revenue = %s, want 40.00", got.ClientRevenue)
	}
	if got.RevenuePct != "100.00" {
		t.Errorf("revenue pct = %s, want 100.00", got.RevenuePct)
	}
}

func TestAgentReport(t *testing.T) {
	ref := day(2024, time.June, 15)
	agent := &models.Agent{ID: "11", Clients: []*models.Client{
		clientWithRevenue("1", "100", ref),
		clientWithRevenue("2", "200", ref),
	}}
	peer := &models.Agent{ID: "7", Clients: []*models.Client{
		clientWithRevenue("3", "100", ref),
	}}

	report := AgentReport(agent, []*models.Agent{agent, peer}, ref)
	if report.AllTime.ClientRevenue != "300.00" {
		t.Errorf("agent revenue = %s, want 300.00", report.AllTime.ClientRevenue)
	}
	if report.AllTime.RevenuePct != "200.00" {
		t.Errorf("revenue pct = %s, want 200.00", report.AllTime.RevenuePct)
	}
	if report.ThisMonth.ClientOrders != 2 {
		t.Errorf("month orders = %d, want 2", report.ThisMonth.ClientOrders)
	}
}

func TestAgentReportNoPeers(t *testing.T) {
	ref := day(2024, time.June, 15)
	agent := &models.Agent{ID: "11", Clients: []*models.Client{clientWithRevenue("1", "50", ref)}}

	report := AgentReport(agent, []*models.Agent{agent}, ref)
	if report.AllTime.RevenuePct != "0.00" || report.ThisMonth.OrdersPct != "0.00" {
		t.Errorf("lone agent: %+v", report)
	}
}

func TestCompareToPeersZeroMean(t *testing.T) {
	ref := day(2024, time.June, 15)
	client := clientWithRevenue("1", "300", ref)
	peers := []*models.Client{{ID: "2"}}

	got := CompareToPeers(client, peers, WindowAllTime, ref)
	if got.RevenuePct != "0.00" {
		t.Errorf("zero mean: revenue pct = %s, want 0.00", got.RevenuePct)
	}
}
