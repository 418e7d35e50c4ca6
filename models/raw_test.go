package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRawRecordUnmarshalMixedTypes(t *testing.T) {
	payload := `{
		"Codice Cliente": 2709,
		"Ragione Sociale Cliente": "Officina Rossi",
		"Codice Agente": 11,
		"Numero Lista": "12170",
		"Codice Articolo": "158626",
		"Descrizione Articolo": "FILTRO OLIO",
		"Marca Articolo": "EMMER",
		"Categoria Sconto Vendita": "A",
		"Valore": 141.60,
		"Costo": "118.00",
		"Data Documento Precedente": "2024-04-10T00:00:00.000Z"
	}`

	var rec RawRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ClientID.String() != "2709" {
		t.Errorf("client id: got %q", rec.ClientID)
	}
	if rec.AgentID.String() != "11" {
		t.Errorf("agent id: got %q", rec.AgentID)
	}
	if string(rec.PriceSold) != "141.60" && string(rec.PriceSold) != "141.6" {
		t.Errorf("price sold: got %q", rec.PriceSold)
	}
	if string(rec.PriceBought) != "118.00" {
		t.Errorf("price bought: got %q", rec.PriceBought)
	}
}

func TestCoerceDropsTimeOfDay(t *testing.T) {
	rec := RawRecord{
		ClientID:  "2709",
		OrderID:   "12170",
		PriceSold: "141.60",
		OrderDate: "2024-04-10T15:23:11+02:00",
	}
	out := rec.Coerce()
	if out.Skip {
		t.Fatalf("unexpected skip: %s", out.SkipReason)
	}
	want := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
	if !out.Record.OrderDate.Equal(want) {
		t.Errorf("order date: got %s, want %s", out.Record.OrderDate, want)
	}
}

func TestCoercePriceFailureDefaultsToZero(t *testing.T) {
	rec := RawRecord{
		ClientID:  "1",
		OrderID:   "2",
		PriceSold: "n/a",
		OrderDate: "2024-04-10",
	}
	out := rec.Coerce()
	if out.Skip {
		t.Fatalf("price failure must not skip the record: %s", out.SkipReason)
	}
	if !out.Record.PriceSold.IsZero() {
		t.Errorf("price sold: got %s, want 0", out.Record.PriceSold)
	}
	if len(out.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", out.Warnings)
	}
}

func TestCoerceSkipsBadDate(t *testing.T) {
	cases := []string{"", "not-a-date", "10/04/2024"}
	for _, date := range cases {
		rec := RawRecord{ClientID: "1", OrderID: "2", OrderDate: date}
		out := rec.Coerce()
		if !out.Skip {
			t.Errorf("date %q: expected skip", date)
		}
	}
}

func TestCoerceQuantityDefaultsToOne(t *testing.T) {
	rec := RawRecord{ClientID: "1", OrderID: "2", OrderDate: "2024-04-10"}
	out := rec.Coerce()
	if out.Skip {
		t.Fatalf("unexpected skip")
	}
	if !out.Record.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("quantity: got %s, want 1", out.Record.Quantity)
	}
}

func TestPromoAppliesTo(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	cases := []struct {
		name   string
		promo  Promo
		client string
		want   bool
	}{
		{"global", Promo{Global: true, EndDate: future}, "42", true},
		{"global excluded", Promo{Global: true, EndDate: future, ExcludedClientsID: []FlexID{"42"}}, "42", false},
		{"listed", Promo{EndDate: future, ClientsID: []FlexID{"42"}}, "42", true},
		{"not listed", Promo{EndDate: future, ClientsID: []FlexID{"7"}}, "42", false},
		{"expired", Promo{Global: true, EndDate: past}, "42", false},
	}
	for _, c := range cases {
		if got := c.promo.AppliesTo(c.client, now); got != c.want {
			t.Errorf("%s: AppliesTo = %v, want %v", c.name, got, c.want)
		}
	}
}
