package normalizer

import (
	"time"

	"salesflow/logger"
	"salesflow/models"
)

// Lookups carries the enrichment collections attached to clients during
// normalization. All maps are keyed by client id. A nil Lookups disables
// enrichment.
type Lookups struct {
	Visits map[string][]models.Visit
	Promos []models.Promo
	Alerts map[string][]models.Alert
	Now    time.Time
}

// NewLookups indexes the raw collaborator payloads by client id.
func NewLookups(visits []models.Visit, promos []models.Promo, alerts []models.Alert, now time.Time) *Lookups {
	l := &Lookups{
		Visits: make(map[string][]models.Visit),
		Promos: promos,
		Alerts: make(map[string][]models.Alert),
		Now:    now,
	}
	for _, v := range visits {
		id := v.ClientID.String()
		l.Visits[id] = append(l.Visits[id], v)
	}
	for _, a := range alerts {
		id := a.ClientID.String()
		l.Alerts[id] = append(l.Alerts[id], a)
	}
	return l
}

// ChunkResult is the partial output of normalizing one chunk. Client totals
// are chunk-local and only become canonical after merging.
type ChunkResult struct {
	Index       int
	Clients     []*models.Client
	RowsIn      int
	RowsSkipped int
}

// NormalizeChunk turns one chunk of raw rows into partial clients. Rows are
// grouped by client id in first-seen order, then by order id within each
// client. Client and movement scalar fields come from the first row of their
// group. The function is pure apart from logging.
func NormalizeChunk(chunk []models.RawRecord, lookups *Lookups, log *logger.Entry) ChunkResult {
	result := ChunkResult{RowsIn: len(chunk)}

	clientIndex := make(map[string]*models.Client)
	movementIndex := make(map[string]map[string]int)

	for _, raw := range chunk {
		out := raw.Coerce()
		if out.Skip {
			result.RowsSkipped++
			if log != nil {
				log.WithFields(logger.Fields{
					"client_id": raw.ClientID.String(),
					"order_id":  raw.OrderID.String(),
					"reason":    out.SkipReason,
				}).Warn("skipping unusable row")
			}
			continue
		}
		for _, warning := range out.Warnings {
			if log != nil {
				log.WithFields(logger.Fields{
					"client_id": out.Record.ClientID,
					"order_id":  out.Record.OrderID,
				}).Warn(warning)
			}
		}

		rec := out.Record
		client, ok := clientIndex[rec.ClientID]
		if !ok {
			client = &models.Client{
				ID:      rec.ClientID,
				Name:    rec.ClientName,
				AgentID: rec.AgentID,
			}
			clientIndex[rec.ClientID] = client
			movementIndex[rec.ClientID] = make(map[string]int)
			result.Clients = append(result.Clients, client)
		}
		if client.Name == "" {
			client.Name = rec.ClientName
		}
		if client.AgentID == "" {
			client.AgentID = rec.AgentID
		}

		movements := movementIndex[rec.ClientID]
		idx, ok := movements[rec.OrderID]
		if !ok {
			idx = len(client.Movements)
			movements[rec.OrderID] = idx
			client.Movements = append(client.Movements, models.Movement{
				ID:               rec.OrderID,
				DiscountCategory: rec.DiscountCategory,
				DateOfOrder:      rec.OrderDate,
			})
		}

		client.Movements[idx].Details = append(client.Movements[idx].Details, models.LineItem{
			ArticleID:        rec.ArticleID,
			Name:             rec.ArticleName,
			Brand:            rec.Brand,
			DiscountCategory: rec.DiscountCategory,
			PriceSold:        rec.PriceSold,
			PriceBought:      rec.PriceBought,
			Quantity:         rec.Quantity,
		})
		client.TotalRevenue = client.TotalRevenue.Add(rec.PriceSold)
	}

	for _, client := range result.Clients {
		client.TotalOrders = len(client.Movements)
		attachLookups(client, lookups)
	}
	return result
}

// attachLookups decorates a client with its visits, applicable promos and
// alerts. Attachment is idempotent per chunk since a client id appears in at
// most one chunk result once per run.
func attachLookups(client *models.Client, lookups *Lookups) {
	if lookups == nil {
		return
	}
	client.Visits = lookups.Visits[client.ID]
	client.Alerts = lookups.Alerts[client.ID]
	for _, promo := range lookups.Promos {
		if promo.AppliesTo(client.ID, lookups.Now) {
			client.Promos = append(client.Promos, promo)
		}
	}
}
