package normalizer

import (
	"sort"

	"salesflow/models"
)

// Merge folds per-chunk partial clients into the canonical collection.
// Partials must be ordered by chunk index so that first-seen semantics match
// the input row order.
//
// Clients sharing an id are combined: revenue is summed, movement lists are
// concatenated, and movements whose id straddles a chunk boundary are
// coalesced by appending the later chunk's line items to the first-seen
// movement. TotalOrders is recomputed from the coalesced movement list, never
// added across partials. Scalar fields keep their first-seen value, with
// empty name and agent id backfilled from later partials.
//
// The result is sorted by most recent movement date descending. Ties keep
// first-seen client order.
func Merge(partials [][]*models.Client) []*models.Client {
	merged := make(map[string]*models.Client)
	movementIndex := make(map[string]map[string]int)
	var order []*models.Client

	for _, partial := range partials {
		for _, partialClient := range partial {
			client, ok := merged[partialClient.ID]
			if !ok {
				merged[partialClient.ID] = partialClient
				index := make(map[string]int, len(partialClient.Movements))
				for i, m := range partialClient.Movements {
					index[m.ID] = i
				}
				movementIndex[partialClient.ID] = index
				order = append(order, partialClient)
				continue
			}

			if client.Name == "" {
				client.Name = partialClient.Name
			}
			if client.AgentID == "" {
				client.AgentID = partialClient.AgentID
			}
			client.TotalRevenue = client.TotalRevenue.Add(partialClient.TotalRevenue)

			index := movementIndex[client.ID]
			for _, m := range partialClient.Movements {
				if i, seen := index[m.ID]; seen {
					client.Movements[i].Details = append(client.Movements[i].Details, m.Details...)
					continue
				}
				index[m.ID] = len(client.Movements)
				client.Movements = append(client.Movements, m)
			}
			if len(client.Visits) == 0 {
				client.Visits = partialClient.Visits
			}
			if len(client.Promos) == 0 {
				client.Promos = partialClient.Promos
			}
			if len(client.Alerts) == 0 {
				client.Alerts = partialClient.Alerts
			}
		}
	}

	for _, client := range order {
		client.TotalOrders = len(client.Movements)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].LatestMovementDate().After(order[j].LatestMovementDate())
	})
	return order
}
