// Package snapshot holds the engine's in-memory output: the latest
// successfully built client collection together with its precomputed
// aggregates. A failed refresh never replaces the last good snapshot.
package snapshot

import (
	"time"

	appconfig "salesflow/config"
	"salesflow/models"
	"salesflow/stats"
)

// Snapshot is one complete, immutable result of a refresh cycle. All
// aggregate fields are computed once at build time so dashboard reads never
// touch the raw collection.
type Snapshot struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`

	Clients []*models.Client `json:"clients"`
	Agents  []*models.Agent  `json:"agents"`

	TotalRevenue string `json:"totalRevenue"`
	NetRevenue   string `json:"netRevenue"`
	TotalOrders  int    `json:"totalOrders"`

	TopBrands           []stats.BrandData         `json:"topBrands"`
	TopArticles         []stats.ArticleData       `json:"topArticles"`
	DistributionMobile  []stats.DistributionEntry `json:"distributionMobile"`
	DistributionDesktop []stats.DistributionEntry `json:"distributionDesktop"`
	Monthly             stats.MonthlySeries       `json:"monthly"`

	RowsTotal   int `json:"rowsTotal"`
	RowsSkipped int `json:"rowsSkipped"`
}

// Build assembles a snapshot from a normalized collection. The agent view and
// every aggregate are computed here, once per refresh.
func Build(runID string, clients []*models.Client, agents []*models.Agent, cfg *appconfig.Config, rowsTotal, rowsSkipped int) *Snapshot {
	ignore := stats.NewIgnoreList(cfg.Aggregation.IgnoreArticleNames)
	movements := stats.AllMovements(clients)

	return &Snapshot{
		RunID:        runID,
		GeneratedAt:  time.Now().UTC(),
		Clients:      clients,
		Agents:       agents,
		TotalRevenue: stats.TotalRevenue(clients),
		NetRevenue:   stats.NetRevenue(clients),
		TotalOrders:  stats.TotalOrders(clients),
		TopBrands:    stats.TopBrands(movements, ignore, cfg.Aggregation.TopBrandLimit),
		TopArticles:  stats.TopArticleTypes(movements, ignore, cfg.Aggregation.TopArticleLimit),
		DistributionMobile: stats.SalesDistribution(clients, true,
			cfg.Aggregation.DistributionMobile, cfg.Aggregation.DistributionTop),
		DistributionDesktop: stats.SalesDistribution(clients, false,
			cfg.Aggregation.DistributionMobile, cfg.Aggregation.DistributionTop),
		Monthly:     stats.Monthly(clients),
		RowsTotal:   rowsTotal,
		RowsSkipped: rowsSkipped,
	}
}

// Client finds a client by id, or nil.
func (s *Snapshot) Client(id string) *models.Client {
	for _, c := range s.Clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Agent finds an agent by id, or nil.
func (s *Snapshot) Agent(id string) *models.Agent {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}
