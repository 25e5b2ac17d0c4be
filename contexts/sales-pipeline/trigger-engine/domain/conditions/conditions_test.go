package conditions

import (
	"strings"
	"testing"
)

func TestEvaluateLeafOperators(t *testing.T) {
	payload := []byte(`{
		"campaign": {
			"campaign_id": "cmp-1",
			"budget": 5000,
			"status": "proposal",
			"tags": ["radio", "podcast"]
		},
		"reason": "budget revised"
	}`)

	cases := []struct {
		name string
		node Node
		want bool
	}{
		{"eq string", Node{Field: "campaign.status", Operator: OpEq, Value: "proposal"}, true},
		{"eq string mismatch", Node{Field: "campaign.status", Operator: OpEq, Value: "signed"}, false},
		{"eq number int vs json float", Node{Field: "campaign.budget", Operator: OpEq, Value: 5000}, true},
		{"neq", Node{Field: "campaign.status", Operator: OpNeq, Value: "signed"}, true},
		{"gt false on equal", Node{Field: "campaign.budget", Operator: OpGt, Value: 5000}, false},
		{"gte true on equal", Node{Field: "campaign.budget", Operator: OpGte, Value: 5000}, true},
		{"lt", Node{Field: "campaign.budget", Operator: OpLt, Value: 10000}, true},
		{"lte", Node{Field: "campaign.budget", Operator: OpLte, Value: 4999}, false},
		{"numeric op on string field", Node{Field: "campaign.status", Operator: OpGt, Value: 1}, false},
		{"in", Node{Field: "campaign.status", Operator: OpIn, Value: []any{"proposal", "verbal"}}, true},
		{"nin", Node{Field: "campaign.status", Operator: OpNin, Value: []any{"signed", "lost"}}, true},
		{"contains substring", Node{Field: "reason", Operator: OpContains, Value: "revised"}, true},
		{"contains array element", Node{Field: "campaign.tags", Operator: OpContains, Value: "podcast"}, true},
		{"contains array miss", Node{Field: "campaign.tags", Operator: OpContains, Value: "tv"}, false},
		{"regex", Node{Field: "campaign.campaign_id", Operator: OpRegex, Value: "^cmp-"}, true},
		{"absent field false", Node{Field: "campaign.owner", Operator: OpEq, Value: "anyone"}, false},
		{"absent field neq true", Node{Field: "campaign.owner", Operator: OpNeq, Value: "anyone"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.node, payload); got != tc.want {
				t.Fatalf("Evaluate(%+v) = %v, want %v", tc.node, got, tc.want)
			}
		})
	}
}

func TestEvaluateComposites(t *testing.T) {
	payload := []byte(`{"campaign":{"budget":5000,"status":"proposal"}}`)

	or := Node{Any: []Node{
		{Field: "campaign.budget", Operator: OpGt, Value: 10000},
		{Field: "campaign.budget", Operator: OpGte, Value: 5000},
	}}
	if !Evaluate(or, payload) {
		t.Fatalf("or branch with one true child should evaluate true")
	}

	and := Node{All: []Node{
		{Field: "campaign.status", Operator: OpEq, Value: "proposal"},
		{Field: "campaign.budget", Operator: OpLt, Value: 1000},
	}}
	if Evaluate(and, payload) {
		t.Fatalf("and branch with one false child should evaluate false")
	}

	nested := Node{All: []Node{
		{Field: "campaign.status", Operator: OpEq, Value: "proposal"},
		{Any: []Node{
			{Field: "campaign.budget", Operator: OpGt, Value: 100000},
			{Field: "campaign.budget", Operator: OpGt, Value: 1000},
		}},
	}}
	if !Evaluate(nested, payload) {
		t.Fatalf("nested composite should evaluate true")
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	cases := []struct {
		name    string
		node    Node
		wantSub string
	}{
		{"empty node", Node{}, "empty node"},
		{"mixed leaf and composite", Node{Field: "a", Operator: OpEq, Value: 1, All: []Node{{Field: "b", Operator: OpEq, Value: 2}}}, "mixes"},
		{"both branches", Node{All: []Node{{Field: "a", Operator: OpEq, Value: 1}}, Any: []Node{{Field: "b", Operator: OpEq, Value: 2}}}, "both"},
		{"missing field", Node{Operator: OpEq, Value: 1}, "field"},
		{"unknown operator", Node{Field: "a", Operator: "like", Value: 1}, "unknown operator"},
		{"regex non-string", Node{Field: "a", Operator: OpRegex, Value: 7}, "string pattern"},
		{"invalid regex", Node{Field: "a", Operator: OpRegex, Value: "("}, "invalid regex"},
		{"in non-list", Node{Field: "a", Operator: OpIn, Value: "x"}, "requires a list"},
		{"nested invalid child", Node{All: []Node{{Field: "a", Operator: OpEq, Value: 1}, {Field: "", Operator: OpEq, Value: 2}}}, "and[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.node)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateAcceptsWellFormedTree(t *testing.T) {
	node := Node{Any: []Node{
		{Field: "campaign.budget", Operator: OpGt, Value: 10000},
		{All: []Node{
			{Field: "campaign.status", Operator: OpIn, Value: []any{"verbal", "signed"}},
			{Field: "campaign.name", Operator: OpRegex, Value: "^Q[1-4]"},
		}},
	}}
	if err := Validate(node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
