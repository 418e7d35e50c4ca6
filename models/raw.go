package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlexID accepts JSON strings and numbers and normalises both to a string.
// The movements feed is inconsistent about identifier types: client and
// agent codes arrive as numbers, order numbers as either.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier is neither string nor number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// FlexDecimal accepts JSON numbers and numeric strings, keeping the raw text
// so coercion can decide how to handle garbage values.
type FlexDecimal string

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexDecimal(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %w", err)
	}
	*f = FlexDecimal(n.String())
	return nil
}

// RawRecord is one flat sales-order line as received from the movements feed.
// Field names mirror the upstream payload verbatim.
type RawRecord struct {
	ClientID         FlexID      `json:"Codice Cliente"`
	ClientName       string      `json:"Ragione Sociale Cliente"`
	AgentID          FlexID      `json:"Codice Agente"`
	OrderID          FlexID      `json:"Numero Lista"`
	ArticleID        FlexID      `json:"Codice Articolo"`
	ArticleName      string      `json:"Descrizione Articolo"`
	Brand            string      `json:"Marca Articolo"`
	DiscountCategory string      `json:"Categoria Sconto Vendita"`
	PriceSold        FlexDecimal `json:"Valore"`
	PriceBought      FlexDecimal `json:"Costo"`
	Quantity         FlexDecimal `json:"Quantita"`
	OrderDate        string      `json:"Data Documento Precedente"`
}

// CoercedRecord is a RawRecord after field coercion: identifiers as strings,
// prices as decimals and the order date reduced to its calendar day.
type CoercedRecord struct {
	ClientID         string
	ClientName       string
	AgentID          string
	OrderID          string
	ArticleID        string
	ArticleName      string
	Brand            string
	DiscountCategory string
	PriceSold        decimal.Decimal
	PriceBought      decimal.Decimal
	Quantity         decimal.Decimal
	OrderDate        time.Time
}

// CoerceOutcome is the tagged result of coercing one raw record. A record is
// either usable (possibly with per-field warnings where a price defaulted to
// zero) or skipped entirely with a reason.
type CoerceOutcome struct {
	Record     CoercedRecord
	Skip       bool
	SkipReason string
	Warnings   []string
}

// orderDateLayouts lists the timestamp shapes the feed has been seen to emit.
var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a raw feed row into a CoercedRecord. An unparseable price
// defaults to zero and is reported as a warning; an unparseable order date or
// a missing client/order identifier skips the record.
func (r RawRecord) Coerce() CoerceOutcome {
	out := CoerceOutcome{}

	if r.ClientID == "" {
		out.Skip = true
		out.SkipReason = "missing client id"
		return out
	}
	if r.OrderID == "" {
		out.Skip = true
		out.SkipReason = "missing order id"
		return out
	}

	date, err := parseOrderDate(r.OrderDate)
	if err != nil {
		out.Skip = true
		out.SkipReason = fmt.Sprintf("unparseable order date %q", r.OrderDate)
		return out
	}

	rec := CoercedRecord{
		ClientID:         r.ClientID.String(),
		ClientName:       strings.TrimSpace(r.ClientName),
		AgentID:          r.AgentID.String(),
		OrderID:          r.OrderID.String(),
		ArticleID:        r.ArticleID.String(),
		ArticleName:      strings.TrimSpace(r.ArticleName),
		Brand:            strings.TrimSpace(r.Brand),
		DiscountCategory: strings.TrimSpace(r.DiscountCategory),
		OrderDate:        date,
	}

	rec.PriceSold, err = parsePrice(r.PriceSold)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unparseable price sold %q, defaulting to 0", string(r.PriceSold)))
	}
	rec.PriceBought, err = parsePrice(r.PriceBought)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unparseable price bought %q, defaulting to 0", string(r.PriceBought)))
	}

	rec.Quantity = decimal.NewFromInt(1)
	if r.Quantity != "" {
		if q, qerr := decimal.NewFromString(string(r.Quantity)); qerr == nil && q.IsPositive() {
			rec.Quantity = q
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("unparseable quantity %q, defaulting to 1", string(r.Quantity)))
		}
	}

	out.Record = rec
	return out
}

func parsePrice(v FlexDecimal) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// parseOrderDate extracts the calendar day from the feed's timestamp,
// dropping time-of-day and timezone.
func parseOrderDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format %q", s)
}
