package assembler

import (
	"testing"

	"salesflow/models"
)

func TestAssembleGroupsByAgent(t *testing.T) {
	clients := []*models.Client{
		{ID: "1", AgentID: "11"},
		{ID: "2", AgentID: "7"},
		{ID: "3", AgentID: "11"},
	}
	infos := []models.AgentInfo{
		{ID: "11", Name: "Bianchi"},
		{ID: "7", Name: "Ferrari"},
	}

	agents := Assemble(clients, infos)
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].ID != "11" || agents[0].Name != "Bianchi" {
		t.Errorf("first agent: got %s/%s", agents[0].ID, agents[0].Name)
	}
	if len(agents[0].Clients) != 2 || len(agents[1].Clients) != 1 {
		t.Errorf("client counts: %d and %d", len(agents[0].Clients), len(agents[1].Clients))
	}
}

func TestAssembleSharesClientsByReference(t *testing.T) {
	client := &models.Client{ID: "1", AgentID: "11"}
	agents := Assemble([]*models.Client{client}, nil)

	client.Name = "renamed"
	if agents[0].Clients[0].Name != "renamed" {
		t.Errorf("agent holds a copy instead of a reference")
	}
}

func TestAssembleUnknownAgentKeepsClient(t *testing.T) {
	clients := []*models.Client{{ID: "1", AgentID: "99"}}
	agents := Assemble(clients, []models.AgentInfo{{ID: "11", Name: "Bianchi"}})
	if len(agents) != 1 || agents[0].ID != "99" || agents[0].Name != "" {
		t.Fatalf("unknown agent mishandled: %+v", agents)
	}
}

func TestAssembleFlattensAttachments(t *testing.T) {
	promo := models.Promo{ID: "p1", Global: true}
	clients := []*models.Client{
		{ID: "1", AgentID: "11",
			Visits: []models.Visit{{ID: "v1"}},
			Promos: []models.Promo{promo},
			Alerts: []models.Alert{{ID: "a1"}}},
		{ID: "2", AgentID: "11",
			Visits: []models.Visit{{ID: "v2"}},
			Promos: []models.Promo{promo}},
	}

	agents := Assemble(clients, nil)
	agent := agents[0]
	if len(agent.Visits) != 2 {
		t.Errorf("visits: got %d, want 2", len(agent.Visits))
	}
	if len(agent.Promos) != 1 {
		t.Errorf("shared promo duplicated: got %d", len(agent.Promos))
	}
	if len(agent.Alerts) != 1 {
		t.Errorf("alerts: got %d, want 1", len(agent.Alerts))
	}
}

func TestAssembleEmptyCollection(t *testing.T) {
	if agents := Assemble(nil, nil); len(agents) != 0 {
		t.Errorf("expected no agents, got %d", len(agents))
	}
}
