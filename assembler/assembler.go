// Package assembler builds the agent view over the canonical client
// collection. Agents reference clients, they never copy them, so a client
// mutation is visible through both views.
package assembler

import (
	"salesflow/logger"
	"salesflow/models"
)

// Assemble groups clients by their agent id. Registry entries from infos
// supply agent names; clients referencing an unknown agent id still produce
// an agent with an empty name so no client is dropped. Clients without an
// agent id are collected under the empty id. Agent order follows the client
// collection's order of first appearance.
//
// Visits, promos and alerts attached to the clients are flattened to agent
// level, deduplicating promos shared by several clients.
func Assemble(clients []*models.Client, infos []models.AgentInfo) []*models.Agent {
	names := make(map[string]string, len(infos))
	for _, info := range infos {
		names[info.ID.String()] = info.Name
	}

	agents := make(map[string]*models.Agent)
	var order []*models.Agent
	promosSeen := make(map[string]map[string]struct{})

	for _, client := range clients {
		agent, ok := agents[client.AgentID]
		if !ok {
			agent = &models.Agent{
				ID:   client.AgentID,
				Name: names[client.AgentID],
			}
			agents[client.AgentID] = agent
			promosSeen[client.AgentID] = make(map[string]struct{})
			order = append(order, agent)
		}
		agent.Clients = append(agent.Clients, client)
		agent.Visits = append(agent.Visits, client.Visits...)
		agent.Alerts = append(agent.Alerts, client.Alerts...)

		seen := promosSeen[client.AgentID]
		for _, promo := range client.Promos {
			if _, dup := seen[promo.ID]; dup {
				continue
			}
			seen[promo.ID] = struct{}{}
			agent.Promos = append(agent.Promos, promo)
		}
	}

	unknown := 0
	for _, agent := range order {
		if agent.Name == "" && agent.ID != "" {
			unknown++
		}
	}
	if unknown > 0 {
		logger.GetLogger().WithComponent("assembler").WithFields(logger.Fields{
			"agents_without_name": unknown,
		}).Warn("clients reference agents missing from the registry")
	}

	return order
}
