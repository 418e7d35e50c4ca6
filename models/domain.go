package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single article sold within a Movement.
type LineItem struct {
	ArticleID        string          `json:"articleId"`
	Name             string          `json:"name"`
	Brand            string          `json:"brand"`
	DiscountCategory string          `json:"discountCategory"`
	PriceSold        decimal.Decimal `json:"priceSold"`
	PriceBought      decimal.Decimal `json:"priceBought"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// Movement is a client-scoped order: one or more line items sold together.
// Movement ids are unique only within their owning client.
type Movement struct {
	ID               string          `json:"id"`
	DiscountCategory string          `json:"discountCategory"`
	Details          []LineItem      `json:"details"`
	DateOfOrder      time.Time       `json:"dateOfOrder"`
	UnpaidAmount     decimal.Decimal `json:"unpaidAmount"`
	PaymentDueDate   *time.Time      `json:"paymentDueDate,omitempty"`
}

// Revenue sums the sold price of every line item in the movement.
func (m Movement) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, d := range m.Details {
		total = total.Add(d.PriceSold)
	}
	return total
}

// Quantity sums the quantity of every line item in the movement.
func (m Movement) Quantity() decimal.Decimal {
	total := decimal.Zero
	for _, d := range m.Details {
		total = total.Add(d.Quantity)
	}
	return total
}

// Client is the canonical customer entity produced by the pipeline.
// TotalRevenue equals the sum of PriceSold over all movement details and
// TotalOrders equals the count of distinct movement ids within this client.
type Client struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AgentID      string          `json:"agentId"`
	TotalOrders  int             `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	Movements    []Movement      `json:"movements"`
	Visits       []Visit         `json:"visits,omitempty"`
	Promos       []Promo         `json:"promos,omitempty"`
	Alerts       []Alert         `json:"alerts,omitempty"`
}

// LatestMovementDate reports the most recent order date across the client's
// movements, or the zero time when the client has none.
func (c *Client) LatestMovementDate() time.Time {
	var latest time.Time
	for _, m := range c.Movements {
		if m.DateOfOrder.After(latest) {
			latest = m.DateOfOrder
		}
	}
	return latest
}

// Agent groups the clients managed by one sales agent. Clients are shared by
// reference with the canonical collection, never copied.
type Agent struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Clients []*Client `json:"clients"`
	Visits  []Visit   `json:"visits,omitempty"`
	Promos  []Promo   `json:"promos,omitempty"`
	Alerts  []Alert   `json:"alerts,omitempty"`
}

// AgentInfo is the agent registry entry served by the REST collaborator.
type AgentInfo struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Visit is an agent visit to a client, supplied by the visits collaborator.
type Visit struct {
	ID        string    `json:"_id"`
	ClientID  FlexID    `json:"clientId"`
	AgentID   FlexID    `json:"agentId"`
	Type      string    `json:"type"`
	Reason    string    `json:"visitReason"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Pending   bool      `json:"pending"`
}

// Promo is a promotion definition. A promo applies to a client when it is
// global and the client is not excluded, or when the client is listed.
type Promo struct {
	ID                string    `json:"_id"`
	Name              string    `json:"name"`
	Discount          string    `json:"discount"`
	Global            bool      `json:"global"`
	ClientsID         []FlexID  `json:"clientsId"`
	ExcludedClientsID []FlexID  `json:"excludedClientsId"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
}

// AppliesTo reports whether the promo targets the given client at the given
// reference time. Expired promos never apply.
func (p Promo) AppliesTo(clientID string, now time.Time) bool {
	if !p.EndDate.IsZero() && p.EndDate.Before(now) {
		return false
	}
	if p.Global {
		for _, excluded := range p.ExcludedClientsID {
			if excluded.String() == clientID {
				return false
			}
		}
		return true
	}
	for _, id := range p.ClientsID {
		if id.String() == clientID {
			return true
		}
	}
	return false
}

// Alert is a client-scoped notification supplied by the alerts collaborator.
type Alert struct {
	ID        string    `json:"_id"`
	ClientID  FlexID    `json:"clientId"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
