package gen

import (
	"context"
	"encoding/json"
	"fmt"

	"toeicq/pkg/llm"
	"toeicq/pkg/logx"
	"toeicq/pkg/persistence"
	"toeicq/pkg/utils"
)

// Generator produces question bank rows for one TOEIC part and level.
type Generator struct {
	client llm.Client
	logger *logx.Logger
	part   int
	level  int
}

// NewGenerator creates a generator for the given part and level.
func NewGenerator(client llm.Client, part, level int) *Generator {
	return &Generator{
		client: client,
		logger: logx.NewLogger("gen"),
		part:   part,
		level:  level,
	}
}

// Generate requests count questions from the model and returns them as bank
// rows ready for insertion. Items that fail schema validation are dropped
// with a warning; an error is returned only when nothing usable came back.
func (g *Generator) Generate(ctx context.Context, count int) ([]*persistence.Question, error) {
	system := systemPrompt(g.part)
	if system == "" {
		return nil, fmt.Errorf("invalid part number %d: must be 1, 2, 3, or 4", g.part)
	}

	req := llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(system),
			llm.NewUserMessage(userPrompt(count, g.level)),
		},
		MaxTokens:   llm.GeneratorMaxTokens,
		Temperature: llm.TemperatureDefault,
	}

	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	questions, err := g.parseResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no valid questions in model response")
	}

	g.logger.Info("Generated %d/%d part %d level %d questions", len(questions), count, g.part, g.level)
	return questions, nil
}

// parseResponse decodes the model output for the generator's part and
// converts every valid item to a bank row.
func (g *Generator) parseResponse(content string) ([]*persistence.Question, error) {
	payload := utils.ExtractJSON(content)

	var questions []*persistence.Question
	switch g.part {
	case 1:
		var result struct {
			Items []Part1Item `json:"items"`
		}
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to parse part 1 response: %w", err)
		}
		for i := range result.Items {
			item := &result.Items[i]
			if err := item.Validate(); err != nil {
				g.logger.Warn("Dropping part 1 item %d: %v", i+1, err)
				continue
			}
			questions = append(questions, part1Row(item))
		}
	case 2:
		var result struct {
			Items []Part2Item `json:"items"`
		}
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to parse part 2 response: %w", err)
		}
		for i := range result.Items {
			item := &result.Items[i]
			if err := item.Validate(); err != nil {
				g.logger.Warn("Dropping part 2 item %d: %v", i+1, err)
				continue
			}
			questions = append(questions, part2Row(item))
		}
	case 3:
		var result struct {
			Items []Part3Item `json:"items"`
		}
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to parse part 3 response: %w", err)
		}
		for i := range result.Items {
			item := &result.Items[i]
			if err := item.Validate(); err != nil {
				g.logger.Warn("Dropping part 3 item %d: %v", i+1, err)
				continue
			}
			row, err := part3Row(item)
			if err != nil {
				g.logger.Warn("Dropping part 3 item %d: %v", i+1, err)
				continue
			}
			questions = append(questions, row)
		}
	case 4:
		var result struct {
			Items []Part4Item `json:"items"`
		}
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to parse part 4 response: %w", err)
		}
		for i := range result.Items {
			item := &result.Items[i]
			if err := item.Validate(); err != nil {
				g.logger.Warn("Dropping part 4 item %d: %v", i+1, err)
				continue
			}
			row, err := part4Row(item)
			if err != nil {
				g.logger.Warn("Dropping part 4 item %d: %v", i+1, err)
				continue
			}
			questions = append(questions, row)
		}
	}

	return questions, nil
}

func part1Row(item *Part1Item) *persistence.Question {
	return &persistence.Question{
		ImgPrompt: item.ImgPrompt,
		Answer:    item.Answer,
		A:         item.A,
		B:         item.B,
		C:         item.C,
		D:         item.D,
	}
}

func part2Row(item *Part2Item) *persistence.Question {
	return &persistence.Question{
		Question: item.Question,
		Answer:   item.Answer,
		A:        item.A,
		B:        item.B,
		C:        item.C,
	}
}

// setColumns flattens the three questions of a part 3/4 set into the JSON
// array columns used by the bank.
func setColumns(questions []SetQuestion, row *persistence.Question) error {
	texts := make([]string, 0, SetSize)
	answers := make([]string, 0, SetSize)
	as := make([]string, 0, SetSize)
	bs := make([]string, 0, SetSize)
	cs := make([]string, 0, SetSize)
	ds := make([]string, 0, SetSize)

	for i := range questions {
		texts = append(texts, questions[i].Question)
		answers = append(answers, questions[i].Answer)
		as = append(as, questions[i].A)
		bs = append(bs, questions[i].B)
		cs = append(cs, questions[i].C)
		ds = append(ds, questions[i].D)
	}

	for _, field := range []struct {
		dst *string
		src []string
	}{
		{&row.Question, texts},
		{&row.Answer, answers},
		{&row.A, as},
		{&row.B, bs},
		{&row.C, cs},
		{&row.D, ds},
	} {
		encoded, err := json.Marshal(field.src)
		if err != nil {
			return fmt.Errorf("failed to encode question set: %w", err)
		}
		*field.dst = string(encoded)
	}
	return nil
}

func part3Row(item *Part3Item) (*persistence.Question, error) {
	script, err := json.Marshal(item.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversation script: %w", err)
	}

	row := &persistence.Question{
		Prompt:    string(script),
		ImgPrompt: item.ImgPrompt,
	}
	if err := setColumns(item.Questions, row); err != nil {
		return nil, err
	}
	return row, nil
}

func part4Row(item *Part4Item) (*persistence.Question, error) {
	row := &persistence.Question{
		Prompt:    item.Talk,
		Sex:       item.Sex,
		ImgPrompt: item.ImgPrompt,
	}
	if err := setColumns(item.Questions, row); err != nil {
		return nil, err
	}
	return row, nil
}
