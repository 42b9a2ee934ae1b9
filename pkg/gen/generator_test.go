package gen

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toeicq/pkg/llm"
	"toeicq/pkg/utils"
)

type cannedClient struct {
	content string
	lastReq llm.CompletionRequest
}

func (c *cannedClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.lastReq = req
	return llm.CompletionResponse{Content: c.content}, nil
}

func (c *cannedClient) GetModelName() string { return "canned" }

const part2Response = `{"items":[
  {"question":"Where should I leave the report?","answer":"B","A":"Since last March.","B":"On my desk, please.","C":"Yes, twice."},
  {"question":"Bad one","answer":"Z","A":"x","B":"y","C":"z"}
]}`

func TestGeneratePart2DropsInvalidItems(t *testing.T) {
	client := &cannedClient{content: part2Response}
	g := NewGenerator(client, 2, 3)

	questions, err := g.Generate(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, "Where should I leave the report?", q.Question)
	assert.Equal(t, "B", q.Answer)
	assert.Equal(t, "On my desk, please.", q.B)
	assert.Empty(t, q.D)

	// The user prompt carries count and difficulty
	userMsg := client.lastReq.Messages[1].Content
	assert.Contains(t, userMsg, "Generate 2")
	assert.Contains(t, userMsg, "3/5")
}

func TestGeneratePart1(t *testing.T) {
	client := &cannedClient{content: "```json\n" + `{"items":[{"img_prompt":"A woman watering plants on a balcony.","answer":"C","A":"She is painting a fence.","B":"She is sweeping the floor.","C":"She is watering plants.","D":"She is closing a window.","type":"People"}]}` + "\n```"}
	g := NewGenerator(client, 1, 2)

	questions, err := g.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "A woman watering plants on a balcony.", questions[0].ImgPrompt)
	assert.Empty(t, questions[0].Question)
}

func TestGeneratePart3EncodesJSONColumns(t *testing.T) {
	item := Part3Item{
		Script: []ScriptLine{
			{Speaker: SpeakerMan1, Line: "Did the shipment arrive?"},
			{Speaker: SpeakerWoman1, Line: "Yes, this morning."},
			{Speaker: SpeakerMan1, Line: "Great, let's unpack it."},
			{Speaker: SpeakerWoman1, Line: "I'll get the inventory list."},
		},
		Questions: []SetQuestion{
			{Question: "What arrived?", Answer: "A", A: "A shipment", B: "A letter", C: "A guest", D: "A invoice"},
			{Question: "When did it arrive?", Answer: "B", A: "Last week", B: "This morning", C: "Tomorrow", D: "At noon"},
			{Question: "What will the woman do?", Answer: "C", A: "Leave", B: "Call a client", C: "Get the inventory list", D: "Unpack alone"},
		},
		Summary: "Two coworkers discuss a shipment.",
		Type:    "Office",
	}
	payload, err := json.Marshal(struct {
		Items []Part3Item `json:"items"`
	}{Items: []Part3Item{item}})
	require.NoError(t, err)

	g := NewGenerator(&cannedClient{content: string(payload)}, 3, 4)
	questions, err := g.Generate(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]

	var script []ScriptLine
	require.NoError(t, json.Unmarshal([]byte(q.Prompt), &script))
	assert.Len(t, script, 4)
	assert.Equal(t, SpeakerWoman1, script[1].Speaker)

	var answers []string
	require.NoError(t, json.Unmarshal([]byte(q.Answer), &answers))
	assert.Equal(t, []string{"A", "B", "C"}, answers)

	var texts []string
	require.NoError(t, json.Unmarshal([]byte(q.Question), &texts))
	assert.Len(t, texts, SetSize)
}

func TestGenerateFailsWhenNothingValid(t *testing.T) {
	g := NewGenerator(&cannedClient{content: `{"items":[]}`}, 2, 1)
	_, err := g.Generate(context.Background(), 5)
	require.Error(t, err)
}

func TestGenerateRejectsInvalidPart(t *testing.T) {
	g := NewGenerator(&cannedClient{content: `{"items":[]}`}, 7, 1)
	_, err := g.Generate(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid part")
}

func TestPart4Validation(t *testing.T) {
	valid := Part4Item{
		Talk: "Attention passengers, the 4:15 express to Newton is delayed by twenty minutes.",
		Sex:  "woman",
		Type: "announcement",
		Questions: []SetQuestion{
			{Question: "Where is this heard?", Answer: "A", A: "A station", B: "A store", C: "A bank", D: "A hotel"},
			{Question: "How long is the delay?", Answer: "B", A: "Ten minutes", B: "Twenty minutes", C: "An hour", D: "Two hours"},
			{Question: "Which train is delayed?", Answer: "C", A: "Local", B: "Freight", C: "Express", D: "Night"},
		},
	}
	assert.NoError(t, valid.Validate())

	badSex := valid
	badSex.Sex = "robot"
	assert.Error(t, badSex.Validate())

	badCount := valid
	badCount.Questions = valid.Questions[:2]
	assert.Error(t, badCount.Validate())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose prefix", `Here you go: {"a":1}`, `{"a":1}`},
		{"array", `noise [1,2] trailing`, `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ExtractJSON(tt.input))
		})
	}
}
