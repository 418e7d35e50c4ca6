package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	appconfig "salesflow/config"
	"salesflow/models"
)

func testConfig() *appconfig.Config {
	cfg := &appconfig.Config{}
	cfg.Processor.MaxWorkers = 2
	cfg.Channels.ResultBuffer = 2
	cfg.Aggregation.TopBrandLimit = 10
	cfg.Aggregation.TopArticleLimit = 5
	cfg.Aggregation.DistributionMobile = 8
	cfg.Aggregation.DistributionTop = 25
	return cfg
}

// fakeSource serves canned feeds and can be told to fail per feed.
type fakeSource struct {
	records    []models.RawRecord
	infos      []models.AgentInfo
	failMove   bool
	failVisits bool
}

func (f *fakeSource) Movements(context.Context) ([]models.RawRecord, error) {
	if f.failMove {
		return nil, errors.New("movements down")
	}
	return f.records, nil
}

func (f *fakeSource) Agents(context.Context) ([]models.AgentInfo, error) {
	return f.infos, nil
}

func (f *fakeSource) Visits(context.Context) ([]models.Visit, error) {
	if f.failVisits {
		return nil, errors.New("visits down")
	}
	return []models.Visit{{ID: "v1", ClientID: "2709"}}, nil
}

func (f *fakeSource) Promos(context.Context) ([]models.Promo, error) { return nil, nil }
func (f *fakeSource) Alerts(context.Context) ([]models.Alert, error) { return nil, nil }

func feedRecords() []models.RawRecord {
	return []models.RawRecord{
		{
			ClientID: "2709", ClientName: "Officina Rossi", AgentID: "11",
			OrderID: "12170", ArticleID: "158626", ArticleName: "FILTRO OLIO",
			Brand: "EMMER", PriceSold: "141.60", PriceBought: "118.00",
			Quantity: "1", OrderDate: "2024-04-10",
		},
		{
			ClientID: "2709", ClientName: "Officina Rossi", AgentID: "11",
			OrderID: "12170", ArticleID: "77120", ArticleName: "PASTIGLIE FRENO",
			Brand: "SBP", PriceSold: "32.36", PriceBought: "26.97",
			Quantity: "1", OrderDate: "2024-04-10",
		},
	}
}

func TestBuildComputesAggregates(t *testing.T) {
	clients := []*models.Client{{
		ID: "2709", Name: "Officina Rossi", AgentID: "11",
		TotalOrders:  1,
		TotalRevenue: decimal.RequireFromString("173.96"),
		Movements: []models.Movement{{
			ID:          "12170",
			DateOfOrder: time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
			Details: []models.LineItem{
				{ArticleID: "158626", Name: "FILTRO OLIO", Brand: "EMMER",
					PriceSold: decimal.RequireFromString("141.60"), PriceBought: decimal.RequireFromString("118.00"), Quantity: decimal.NewFromInt(1)},
			},
		}},
	}}

	snap := Build("run-1", clients, nil, testConfig(), 2, 0)
	if snap.TotalRevenue != "173.96" || snap.TotalOrders != 1 {
		t.Errorf("summary: revenue %s orders %d", snap.TotalRevenue, snap.TotalOrders)
	}
	if len(snap.TopBrands) != 1 || snap.TopBrands[0].Label != "EMMER" {
		t.Errorf("top brands: %v", snap.TopBrands)
	}
	if len(snap.Monthly.Months) != 1 || snap.Monthly.Months[0] != "2024-04" {
		t.Errorf("monthly: %v", snap.Monthly.Months)
	}
	if snap.Client("2709") == nil || snap.Client("nope") != nil {
		t.Errorf("client lookup broken")
	}
}

func TestRefreshOncePopulatesStore(t *testing.T) {
	store := NewStore()
	source := &fakeSource{records: feedRecords(), infos: []models.AgentInfo{{ID: "11", Name: "Bianchi"}}}

	r := NewRefresher(testConfig(), source, store)
	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	snap := store.Current()
	if snap == nil {
		t.Fatalf("store empty after successful refresh")
	}
	if snap.TotalRevenue != "173.96" {
		t.Errorf("revenue: %s", snap.TotalRevenue)
	}
	if len(snap.Agents) != 1 || snap.Agents[0].Name != "Bianchi" {
		t.Errorf("agents: %+v", snap.Agents)
	}
	if len(snap.Clients[0].Visits) != 1 {
		t.Errorf("visits not attached")
	}

	status := store.Status()
	if !status.Ready || status.Failures != 0 {
		t.Errorf("status: %+v", status)
	}
}

func TestRefreshFailureKeepsLastGoodSnapshot(t *testing.T) {
	store := NewStore()
	source := &fakeSource{records: feedRecords()}
	r := NewRefresher(testConfig(), source, store)

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	previous := store.Current()

	source.failMove = true
	if err := r.RefreshOnce(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}

	if store.Current() != previous {
		t.Errorf("failed refresh replaced the snapshot")
	}
	status := store.Status()
	if !status.StaleRefresh || status.Failures != 1 || status.LastError == "" {
		t.Errorf("status after failure: %+v", status)
	}
}

func TestRefreshOptionalFeedFailureDegrades(t *testing.T) {
	store := NewStore()
	source := &fakeSource{records: feedRecords(), failVisits: true}
	r := NewRefresher(testConfig(), source, store)

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("optional feed failure must not abort: %v", err)
	}
	snap := store.Current()
	if len(snap.Clients[0].Visits) != 0 {
		t.Errorf("expected no visits attached")
	}
}

func TestStoreStatusBeforeFirstRefresh(t *testing.T) {
	status := NewStore().Status()
	if status.Ready {
		t.Errorf("empty store reports ready")
	}
}
