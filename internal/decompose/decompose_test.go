package decompose

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/llm/llmtest"
	"github.com/sd155/subtasker/internal/prompts"
	"github.com/sd155/subtasker/pkg/models"
)

const queryReply = `{"result":"query","question":"Which flour do you have?"}`

const successReply = `{
	"result": "success",
	"subtasks": [
		{"id": "1", "name": "Mix", "instruction": "Mix flour and water", "subtasks": [
			{"id": "1.1", "name": "Measure", "instruction": "Measure 500g flour"},
			{"id": "1.2", "name": "Pour", "instruction": "Pour 300ml water"}
		]},
		{"id": "2", "name": "Bake", "instruction": "Bake for 40 minutes"}
	]
}`

func wantSuccessTree() []models.SubtaskNode {
	return []models.SubtaskNode{
		{ID: "1", Name: "Mix", Instruction: "Mix flour and water", Subtasks: []models.SubtaskNode{
			{ID: "1.1", Name: "Measure", Instruction: "Measure 500g flour"},
			{ID: "1.2", Name: "Pour", Instruction: "Pour 300ml water"},
		}},
		{ID: "2", Name: "Bake", Instruction: "Bake for 40 minutes"},
	}
}

type staticPrompts string

func (p staticPrompts) Instruction(prompts.Kind) string { return string(p) }

func newDecomposer(gw llm.Gateway) *Decomposer {
	return New(gw, staticPrompts("decompose rules"), nil)
}

func TestNew(t *testing.T) {
	d := newDecomposer(llmtest.NewGateway())
	if d == nil {
		t.Fatal("New returned nil")
	}
	if d.Context().Len() != 0 {
		t.Errorf("fresh context Len = %d, want 0 (system prompt is injected lazily)", d.Context().Len())
	}
}

func TestRequest_Query(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.OK(queryReply))
	d := newDecomposer(gw)

	res := d.Request(context.Background(), "Bake bread")

	outcome, ok := res.Value()
	if !ok {
		e, _ := res.Failure()
		t.Fatalf("Request failed: %v", e)
	}
	q, isQuery := outcome.(Query)
	if !isQuery {
		t.Fatalf("outcome = %T, want Query", outcome)
	}
	if q.Question != "Which flour do you have?" {
		t.Errorf("Question = %q", q.Question)
	}
}

func TestRequest_Decomposed(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.OK(successReply))
	d := newDecomposer(gw)

	res := d.Request(context.Background(), "Bake bread")

	outcome, ok := res.Value()
	if !ok {
		t.Fatal("Request failed")
	}
	dec, isDecomposed := outcome.(Decomposed)
	if !isDecomposed {
		t.Fatalf("outcome = %T, want Decomposed", outcome)
	}
	if diff := cmp.Diff(wantSuccessTree(), dec.Subtasks, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("subtasks mismatch (-want +got):\n%s", diff)
	}
}

func TestRequest_ContextGrowth(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.OK(queryReply), llmtest.OK(successReply))
	d := newDecomposer(gw)
	ctx := context.Background()

	d.Request(ctx, "Bake bread")
	d.Request(ctx, "Wheat flour")

	want := []llm.Element{
		llm.SystemElement("decompose rules"),
		llm.UserElement("Bake bread"),
		llm.AssistantElement(queryReply),
		llm.UserElement("Wheat flour"),
		llm.AssistantElement(successReply),
	}
	if diff := cmp.Diff(want, d.Context().Elements()); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}

	calls := gw.Calls()
	if len(calls) != 2 {
		t.Fatalf("gateway calls = %d, want 2", len(calls))
	}
	if len(calls[0]) != 2 {
		t.Errorf("first call sent %d elements, want 2", len(calls[0]))
	}
	if diff := cmp.Diff(want[:4], calls[1]); diff != "" {
		t.Errorf("second call context mismatch (-want +got):\n%s", diff)
	}
}

func TestRequest_SystemPromptInjectedOnce(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.OK(queryReply), llmtest.OK(queryReply), llmtest.OK(queryReply))
	d := newDecomposer(gw)

	for i := 0; i < 3; i++ {
		d.Request(context.Background(), "more")
	}

	systems := 0
	for _, e := range d.Context().Elements() {
		if e.Role == llm.RoleSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Errorf("system elements = %d, want 1", systems)
	}
	if d.Context().At(0).Role != llm.RoleSystem {
		t.Error("first element should be the system instruction")
	}
}

func TestRequest_GatewayFailureNotRemembered(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.Fail("timeout"), llmtest.OK(queryReply))
	d := newDecomposer(gw)

	res := d.Request(context.Background(), "Bake bread")
	if res.IsSuccess() {
		t.Fatal("Request should fail when the gateway fails")
	}
	if err, _ := res.Failure(); err.Agent != "decomposer" {
		t.Errorf("Agent = %q, want decomposer", err.Agent)
	}
	if d.Context().Len() != 2 {
		t.Errorf("context Len = %d, want 2 (system + user, no reply)", d.Context().Len())
	}

	d.Request(context.Background(), "again")
	roles := []llm.Role{}
	for _, e := range d.Context().Elements() {
		roles = append(roles, e.Role)
	}
	want := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleUser, llm.RoleAssistant}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestRequest_DecodeFailureRemembersReply(t *testing.T) {
	gw := llmtest.NewGateway(llmtest.OK(`{"result":"query"}`))
	d := newDecomposer(gw)

	res := d.Request(context.Background(), "Bake bread")

	if res.IsSuccess() {
		t.Fatal("Request should fail on a reply missing 'question'")
	}
	if d.Context().Len() != 3 {
		t.Errorf("context Len = %d, want 3", d.Context().Len())
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "prose", input: "Here is your plan", want: "decode reply"},
		{name: "markdown fence", input: "```json\n{\"result\":\"query\",\"question\":\"x\"}\n```", want: "decode reply"},
		{name: "missing question", input: `{"result":"query"}`, want: `"question"`},
		{name: "missing subtasks", input: `{"result":"success"}`, want: `"subtasks"`},
		{name: "subtasks not array", input: `{"result":"success","subtasks":"none"}`, want: `"subtasks"`},
		{name: "unknown variant", input: `{"result":"maybe"}`, want: `unknown reply variant "maybe"`},
		{name: "node missing id", input: `{"result":"success","subtasks":[{"name":"a","instruction":"b"}]}`, want: `subtasks[0]: missing required field "id"`},
		{name: "nested missing instruction", input: `{"result":"success","subtasks":[{"id":"1","name":"a","instruction":"b","subtasks":[{"id":"1.1","name":"c"}]}]}`, want: `subtasks[0].subtasks[0]: missing required field "instruction"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, should contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseResponse_OptionalChildren(t *testing.T) {
	outcome, err := ParseResponse(`{"result":"success","subtasks":[{"id":"1","name":"a","instruction":"b","subtasks":null},{"id":"2","name":"c","instruction":"d"}],"note":"ignored"}`)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	dec := outcome.(Decomposed)
	for _, n := range dec.Subtasks {
		if n.Subtasks == nil {
			t.Errorf("node %s children should default to an empty slice", n.ID)
		}
		if !n.IsLeaf() {
			t.Errorf("node %s should be a leaf", n.ID)
		}
	}
}

func TestRequest_MalformedNeverPanics(t *testing.T) {
	inputs := []string{``, `{`, `[]`, `null`, `{"result":["query"]}`, `{"result":"success","subtasks":[null]}`}
	for _, in := range inputs {
		d := newDecomposer(llmtest.NewGateway(llmtest.OK(in)))
		if res := d.Request(context.Background(), "x"); res.IsSuccess() {
			t.Errorf("Request(%q) succeeded, want failure", in)
		}
	}
}

func TestMatch(t *testing.T) {
	kind := func(o Outcome) string {
		return Match(o,
			func(q Query) string { return "query:" + q.Question },
			func(d Decomposed) string { return "decomposed" },
		)
	}

	if got := kind(Query{Question: "why"}); got != "query:why" {
		t.Errorf("Match(Query) = %q", got)
	}
	if got := kind(Decomposed{}); got != "decomposed" {
		t.Errorf("Match(Decomposed) = %q", got)
	}
}
