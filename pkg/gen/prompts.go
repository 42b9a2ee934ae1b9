package gen

import "fmt"

// System prompts per part. Each instructs the model to answer with a single
// JSON object {"items": [...]} matching the part's item schema, since the
// response is parsed with encoding/json rather than a structured-output API.

const part1SystemPrompt = `Create mock TOEIC listening Part 1 questions: a picture and 4 statements.
Create the AI prompt to generate the picture as well.
Classify each picture as "People" or "Objects".
Respond ONLY with a JSON object of this exact shape, no other text:
{"items":[{"img_prompt":"...","answer":"A","A":"...","B":"...","C":"...","D":"...","type":"People"}]}`

const part2SystemPrompt = `Create mock TOEIC listening Part 2 questions: a question or statement and 3 responses.
Respond ONLY with a JSON object of this exact shape, no other text:
{"items":[{"question":"...","answer":"A","A":"...","B":"...","C":"..."}]}`

const part3SystemPrompt = `Create mock TOEIC listening Part 3 questions: conversations between 2-3 speakers
(mix of genders) with 3 follow-up questions each.
Identify each line's speaker as man1, woman1, man2, or woman2; the digit distinguishes
speakers of the same sex.
The conversation should be 4-6 exchanges if 2 speakers; 6-8 exchanges if 3 speakers.
Keep it realistic and relevant to business contexts.
In questions and options, if mentioning any speaker, specify the gender (the man, men,
woman, or women).
The conversation may or may not refer to a chart or visual; if it does, also create the
AI prompt to generate the reference and put it in img_prompt, otherwise use an empty string.
Classify each conversation as "Office", "CustomerService", or "Other".
Respond ONLY with a JSON object of this exact shape, no other text:
{"items":[{"script":[{"speaker":"man1","line":"..."}],"img_prompt":"","questions":[{"question":"...","answer":"A","A":"...","B":"...","C":"...","D":"..."},{"question":"...","answer":"B","A":"...","B":"...","C":"...","D":"..."},{"question":"...","answer":"C","A":"...","B":"...","C":"...","D":"..."}],"summary":"...","type":"Office"}]}`

const part4SystemPrompt = `Create mock TOEIC listening Part 4 questions: a monologue/talk (6-12 sentences) with 3 follow-up questions.
May include a visual reference (chart/table/schedule).
If it does, also create the AI prompt to generate the visual reference and put it in img_prompt; if not, return an empty string for it.
Classify the talk type as one of: talk, announcement, advertisement, news report, broadcast, tour, excerpt from a meeting, phone message, message.
Optionally specify the speaker's sex as "man" or "woman".
Respond ONLY with a JSON object of this exact shape, no other text:
{"items":[{"talk":"...","sex":"man","img_prompt":"","questions":[{"question":"...","answer":"A","A":"...","B":"...","C":"...","D":"..."},{"question":"...","answer":"B","A":"...","B":"...","C":"...","D":"..."},{"question":"...","answer":"C","A":"...","B":"...","C":"...","D":"..."}],"type":"announcement","summary":"..."}]}`

// systemPrompt returns the generation prompt for a part, or "" for an
// unsupported part number.
func systemPrompt(part int) string {
	switch part {
	case 1:
		return part1SystemPrompt
	case 2:
		return part2SystemPrompt
	case 3:
		return part3SystemPrompt
	case 4:
		return part4SystemPrompt
	default:
		return ""
	}
}

// userPrompt returns the per-run instruction with count and difficulty.
func userPrompt(count, level int) string {
	return fmt.Sprintf("Generate %d non-repetitive questions. Difficulty level: %d/5. Return JSON only.", count, level)
}
