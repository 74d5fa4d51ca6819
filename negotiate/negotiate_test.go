package negotiate

import (
	"testing"

	"tooldeck/model"
)

func flightSchema() []model.ToolParam {
	return []model.ToolParam{
		{Name: "destination", Type: "string", Required: true},
		{Name: "date", Type: "date", Required: true},
		{Name: "class", Type: "string", Required: false},
	}
}

func TestNegotiatorLifecycle(t *testing.T) {
	n := New()

	if n.Active() {
		t.Fatal("fresh negotiator reports active")
	}

	err := n.Begin("flight-booker", "Flight Booker", map[string]string{"destination": "Lisbon"}, flightSchema())
	if err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if !n.Active() || n.ToolID() != "flight-booker" {
		t.Fatalf("negotiator not collecting for flight-booker")
	}

	missing := n.Missing()
	if len(missing) != 1 || missing[0].Name != "date" {
		t.Fatalf("Missing() = %v, want [date]", missing)
	}

	outcome, err := n.Supply(map[string]string{"date": "2026-09-01"})
	if err != nil {
		t.Fatalf("Supply() error: %v", err)
	}
	if !outcome.Resolved {
		t.Fatalf("expected resolution, still missing %v", outcome.Missing)
	}
	if outcome.Params["destination"] != "Lisbon" || outcome.Params["date"] != "2026-09-01" {
		t.Errorf("merged params = %v", outcome.Params)
	}
	if n.Active() {
		t.Error("negotiator still active after resolution")
	}
}

func TestNegotiatorPartialSupply(t *testing.T) {
	n := New()
	if err := n.Begin("flight-booker", "Flight Booker", nil, flightSchema()); err != nil {
		t.Fatal(err)
	}

	outcome, err := n.Supply(map[string]string{"destination": "Porto"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Resolved {
		t.Fatal("resolved with a required field still missing")
	}
	if len(outcome.Missing) != 1 || outcome.Missing[0].Name != "date" {
		t.Errorf("missing = %v, want [date]", outcome.Missing)
	}

	// New values overwrite old ones by name.
	outcome, err = n.Supply(map[string]string{"destination": "Faro", "date": "tomorrow"})
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Resolved {
		t.Fatalf("expected resolution, missing %v", outcome.Missing)
	}
	if outcome.Params["destination"] != "Faro" {
		t.Errorf("destination = %q, want overwritten value Faro", outcome.Params["destination"])
	}
}

func TestNegotiatorNeverResolvesWithMissingRequired(t *testing.T) {
	n := New()
	if err := n.Begin("flight-booker", "Flight Booker", nil, flightSchema()); err != nil {
		t.Fatal(err)
	}

	// Optional fields and empty values must not count toward resolution.
	supplies := []map[string]string{
		{"class": "economy"},
		{"destination": ""},
		{"date": ""},
		{},
	}
	for _, values := range supplies {
		outcome, err := n.Supply(values)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Resolved {
			t.Fatalf("resolved after supplying %v with required fields absent", values)
		}
	}
}

func TestNegotiatorAbandon(t *testing.T) {
	n := New()
	if err := n.Begin("flight-booker", "Flight Booker", map[string]string{"destination": "Lisbon"}, flightSchema()); err != nil {
		t.Fatal(err)
	}

	n.Abandon()
	if n.Active() {
		t.Fatal("still active after Abandon")
	}

	// Abandon discards collected state entirely: a fresh Begin starts over.
	if err := n.Begin("flight-booker", "Flight Booker", nil, flightSchema()); err != nil {
		t.Fatal(err)
	}
	if len(n.Missing()) != 2 {
		t.Errorf("Missing() after restart = %v, want both fields", n.Missing())
	}

	// Abandon when idle is a no-op.
	n.Abandon()
	n.Abandon()
}

func TestNegotiatorRejectsOverlappingBegin(t *testing.T) {
	n := New()
	if err := n.Begin("flight-booker", "Flight Booker", nil, flightSchema()); err != nil {
		t.Fatal(err)
	}

	if err := n.Begin("other-tool", "Other", nil, nil); err == nil {
		t.Fatal("Begin() while collecting should fail")
	}
	if n.ToolID() != "flight-booker" {
		t.Errorf("live negotiation clobbered by rejected Begin")
	}
}

func TestNegotiatorSupplyWhenIdle(t *testing.T) {
	n := New()
	if _, err := n.Supply(map[string]string{"x": "y"}); err == nil {
		t.Fatal("Supply() on idle negotiator should fail")
	}
}
