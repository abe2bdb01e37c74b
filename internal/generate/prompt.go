// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/report-drafter/pkg/types"
)

// Prompt is one request to a Model.
type Prompt struct {
	// System is the system instruction. Empty means none.
	System string

	// User is the user message.
	User string

	// JSON asks the model for a JSON-only reply.
	JSON bool
}

// systemInstruction frames every drafting call: the model prints report
// text, it does not chat.
const systemInstruction = `You generate teaching-initiative reports. You are not a chatbot or an assistant; you are a document printer.

Rules:
1. Never add greetings, lead-ins, explanations or descriptions of your process ("To write this section...", "Here is the content...").
2. Output only the final text, ready to be pasted into the report.
3. Start directly with the section heading or its first paragraph.
4. Formal, scientific, pedagogical register.
5. Stay logically consistent with the earlier sections.`

// strictOutputRules are appended to every standard section prompt.
const strictOutputRules = `--- OUTPUT RULES (STRICT) ---
- NEVER write "Below is...", "This section...", "To solve this problem...".
- Go straight into the content.
- Use professional Markdown (bold key ideas, clear bullet lists).`

var promptFuncs = template.FuncMap{
	"excerpt": func(c types.GenerationContext, id string, limit int) string {
		return c.Excerpt(types.SectionID(id), limit)
	},
	"trim": strings.TrimSpace,
}

var baseContextTmpl = `--- TOPIC INFORMATION ---
TOPIC: "{{.Ctx.Topic}}"
SUBJECT: "{{.Ctx.Subject}}"
GRADE: "{{.Ctx.Grade}}"
-------------------------
`

// listItemsTmpl asks for a fixed number of short measure labels as a JSON array.
var listItemsTmpl = template.Must(template.New("list-items").Funcs(promptFuncs).Parse(baseContextTmpl + `
>>> DIFFICULTIES (current situation): "{{excerpt .Ctx "reality" 1500}}"
{{- if trim .Ctx.Guidance}}
USER REQUEST: "{{trim .Ctx.Guidance}}"
{{- end}}

TASK: Propose {{.Count}} creative, concrete, practical teaching measures that address the difficulties above.

OUTPUT (STRICT):
- Return only a JSON array of strings (the measure names).
- No other text.
- Format: ["Measure 1: ...", "Measure 2: ..."]
`))

// expandItemTmpl asks for the detailed text of one measure.
var expandItemTmpl = template.Must(template.New("expand-item").Funcs(promptFuncs).Parse(baseContextTmpl + `
TASK: Write the detailed content of MEASURE {{.Index}}: "{{.Label}}".

CONTENT (DEEP DIVE MODE):
- Long, detailed and thorough (about 400-600 words for this measure).
- Required structure:
  1. Purpose of the measure (why this approach).
  2. How it is carried out (step by step: what the teacher does, what the pupils do).
  3. A real classroom example (VERY IMPORTANT: a concrete lesson, game or situation in {{.Ctx.Subject}}, grade {{.Ctx.Grade}}).
  4. Expected results of the measure.

FORMAT:
- Start with the heading: "### {{.Index}}. {{.Label}}"
- Standard Markdown (bold, lists).
- Persuasive pedagogical register.
`))

// sectionTasks holds the task block of every standard section prompt.
var sectionTasks = map[types.SectionID]string{
	types.SectionReason: `TASK: Write the full content of "I. Reason for choosing the topic".

CONTENT:
- Paragraph 1: the general context (curriculum reform, the role of {{.Ctx.Subject}}).
- Paragraph 2: the problem (where pupils struggle, the limits of the old methods).
- Paragraph 3: the urgency of the topic, closing on its title.`,

	types.SectionObjectiveMethod: `>>> CONTEXT (reason for choosing the topic): "{{excerpt .Ctx "reason" 1000}}"

TASK: Write "Research objectives" and "Research methods".

CONTENT:
1. Objectives: briefly, what the research sets out to solve.
2. Methods: list and briefly describe the methods (document study, survey, classroom experiment...).`,

	types.SectionTheory: `TASK: Write "III.1. Theoretical basis".

CONTENT:
- Define the key concepts of the topic "{{.Ctx.Topic}}".
- Cite modern educational viewpoints and the role of this issue in building pupils' qualities and competences.`,

	types.SectionReality: `TASK: Write "III.2. Current situation".

CONTENT:
- Situation: objective and subjective advantages.
- Difficulties (the core): the pupils' errors and limits, the teachers' difficulties, in detail.
- Survey figures (required): a Markdown table of assumed start-of-year results showing a low pass rate.`,

	types.SectionMeasures: `>>> DIFFICULTIES (from the current situation): "{{excerpt .Ctx "reality" 1500}}"

TASK: Write "III.3. Measures".

CONTENT:
- The most important part. Describe 3-4 concrete measures in detail.
- Each measure: a clear action name, how it is carried out step by step, a concrete example in {{.Ctx.Subject}}.`,

	types.SectionNewPoints: `>>> CONTEXT (measures written so far): "{{excerpt .Ctx "measures" 800}}"

TASK: Write "III.4. What is new".

CONTENT:
- Contrast the old way with the new one just described.
- Stress the creativity and practical applicability.`,

	types.SectionEffectiveness: `TASK: Write "III.5. Effectiveness".

CONTENT:
- The positive change in pupils (attitude, skills, results).
- Comparison table (required): start of year against end of year, showing more good results and fewer weak ones.`,

	types.SectionConclusion: `TASK: Write "IV.1. Conclusion".

CONTENT:
- Restate the value of the topic.
- Draw pedagogical lessons for yourself and your colleagues.`,

	types.SectionRecommendation: `TASK: Write "IV.2. Recommendations".

CONTENT:
- Concrete proposals to the subject team, the school board and the education office on facilities and training.`,

	types.SectionReferences: `TASK: Write the "References" list.

CONTENT:
- 5-7 sources (textbooks, the curriculum, teacher guides, education articles) related to {{.Ctx.Subject}}.
- Standard citation format.`,
}

var sectionTmpls = func() map[types.SectionID]*template.Template {
	out := make(map[types.SectionID]*template.Template, len(sectionTasks))
	for id, task := range sectionTasks {
		body := baseContextTmpl + `
{{- if trim .Ctx.Guidance}}
USER INSTRUCTIONS: "{{trim .Ctx.Guidance}}"
{{- else}}
AUTOMATIC MODE: analyse the topic and context yourself and write the best content.
{{- end}}
` + task + "\n\n" + strictOutputRules + "\n"
		out[id] = template.Must(template.New(string(id)).Funcs(promptFuncs).Parse(body))
	}
	return out
}()

type promptData struct {
	Ctx   types.GenerationContext
	Count int
	Index int
	Label string
}

// BuildPrompt renders the prompt for req.
func BuildPrompt(req Request) (Prompt, error) {
	data := promptData{
		Ctx:   req.Context,
		Count: req.Count,
		Index: req.ItemIndex,
		Label: req.ItemLabel,
	}

	switch req.Operation {
	case OpListItems:
		user, err := render(listItemsTmpl, data)
		if err != nil {
			return Prompt{}, err
		}
		return Prompt{User: user, JSON: true}, nil

	case OpExpandItem:
		user, err := render(expandItemTmpl, data)
		if err != nil {
			return Prompt{}, err
		}
		return Prompt{System: systemInstruction, User: user}, nil

	case OpFreeformSection:
		tmpl, ok := sectionTmpls[req.Section]
		if !ok {
			return Prompt{}, fmt.Errorf("section %q has no prompt", req.Section)
		}
		user, err := render(tmpl, data)
		if err != nil {
			return Prompt{}, err
		}
		return Prompt{System: systemInstruction, User: user}, nil
	}
	return Prompt{}, fmt.Errorf("unknown operation %q", req.Operation)
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
