// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// SectionID identifies one section of a teaching-initiative report.
type SectionID string

const (
	SectionGeneralInfo     SectionID = "general_info"
	SectionReason          SectionID = "reason"
	SectionObjectiveMethod SectionID = "objective_method"
	SectionTheory          SectionID = "theory"
	SectionReality         SectionID = "reality"
	SectionMeasures        SectionID = "measures"
	SectionNewPoints       SectionID = "new_points"
	SectionEffectiveness   SectionID = "effectiveness"
	SectionConclusion      SectionID = "conclusion"
	SectionRecommendation  SectionID = "recommendation"
	SectionReferences      SectionID = "references"
)

// SectionDef describes one section in the report catalog.
type SectionDef struct {
	// ID is the stable section identifier.
	ID SectionID `json:"id" yaml:"id"`

	// Title is the heading printed in the exported document.
	Title string `json:"title" yaml:"title"`

	// Description explains what the section covers.
	Description string `json:"description" yaml:"description"`

	// PromptLabel is the question asked of the user for extra guidance.
	PromptLabel string `json:"prompt_label,omitempty" yaml:"prompt_label,omitempty"`

	// Guide is static expert advice for writing the section.
	Guide string `json:"guide,omitempty" yaml:"guide,omitempty"`
}

var sectionCatalog = []SectionDef{
	{
		ID:          SectionGeneralInfo,
		Title:       "General information",
		Description: "Topic, subject and grade that give the model its context.",
		Guide:       "Keep the topic short and name both the measure (what is new) and who it applies to.\nExample: 'Building reading comprehension for grade 5 pupils with mind maps'.",
	},
	{
		ID:          SectionReason,
		Title:       "I. Reason for choosing the topic",
		Description: "Urgency of the topic: objective reasons (curriculum reform) and subjective ones (classroom reality).",
		PromptLabel: "Extra guidance (leave empty to let the model work from the topic):",
		Guide:       "1. Legal basis: what the curriculum requires for this competence.\n2. Practical basis: where pupils struggle, what teachers find hard.\n3. Conclusion: for these reasons the topic was chosen.",
	},
	{
		ID:          SectionObjectiveMethod,
		Title:       "II. Objectives and research methods",
		Description: "Research objective, subjects, scope and methods.",
		PromptLabel: "Extra guidance (leave empty to let the model propose methods):",
		Guide:       "List concrete methods: document study, surveys at the start and end of the year, classroom experiment against a control class, statistical comparison.",
	},
	{
		ID:          SectionTheory,
		Title:       "III.1. Theoretical basis",
		Description: "Concepts, definitions, guiding documents and educational viewpoints.",
		PromptLabel: "Extra guidance (leave empty to let the model cite theory):",
		Guide:       "Define the key concepts of the topic, describe the learners' age characteristics, and state the role of the subject in the curriculum.",
	},
	{
		ID:          SectionReality,
		Title:       "III.2. Current situation",
		Description: "Advantages and difficulties before the initiative was applied.",
		PromptLabel: "Extra guidance (the model assumes typical figures when none are given):",
		Guide:       "1. Advantages.\n2. Difficulties (the important part).\n3. Start-of-year survey table showing the low baseline.",
	},
	{
		ID:          SectionMeasures,
		Title:       "III.3. Measures",
		Description: "The core of the report: each measure applied, in detail.",
		PromptLabel: "Extra guidance (the model builds on the reason and current situation):",
		Guide:       "Split into Measure 1, Measure 2 and so on. Each one: name, purpose, steps, a worked classroom example. Concrete teacher actions, not theory.",
	},
	{
		ID:          SectionNewPoints,
		Title:       "III.4. What is new",
		Description: "How the initiative differs from traditional practice.",
		PromptLabel: "Extra guidance (the model compares the new measures with the old way):",
		Guide:       "Before: lecture-led, passive pupils. After: games and group work, active pupils. The novelty is in organisation and tools.",
	},
	{
		ID:          SectionEffectiveness,
		Title:       "III.5. Effectiveness",
		Description: "Results after applying the initiative, with comparison figures.",
		PromptLabel: "Extra guidance (the model builds a before/after comparison table):",
		Guide:       "Compare the start-of-year figures with end-of-year ones in a table and comment on the change in grades and attitudes.",
	},
	{
		ID:          SectionConclusion,
		Title:       "IV.1. Conclusion",
		Description: "Value of the initiative and lessons learned.",
		PromptLabel: "Extra guidance:",
		Guide:       "Summarise what the initiative solved and what a teacher needs to apply it successfully.",
	},
	{
		ID:          SectionRecommendation,
		Title:       "IV.2. Recommendations",
		Description: "Proposals to the subject team, school board and education office.",
		PromptLabel: "Extra guidance:",
		Guide:       "Facilities, reference material, training.",
	},
	{
		ID:          SectionReferences,
		Title:       "References",
		Description: "Books, articles and websites consulted.",
		PromptLabel: "Extra guidance:",
		Guide:       "Sort alphabetically by author.\n1. Ministry of Education (2018), General education curriculum...\n2. Author A (2020), Active teaching methods, Education Publishing House.",
	},
}

// Sections returns the report catalog in document order.
func Sections() []SectionDef {
	out := make([]SectionDef, len(sectionCatalog))
	copy(out, sectionCatalog)
	return out
}

// LookupSection returns the catalog entry for id.
func LookupSection(id SectionID) (SectionDef, bool) {
	for _, s := range sectionCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return SectionDef{}, false
}

// IsContent reports whether id is a section with generated body text.
func (id SectionID) IsContent() bool {
	if id == SectionGeneralInfo {
		return false
	}
	_, ok := LookupSection(id)
	return ok
}

// DocumentState is one persisted report: its general information plus the
// current text of every section.
type DocumentState struct {
	ID        string               `json:"id" yaml:"id"`
	Topic     string               `json:"topic" yaml:"topic"`
	Subject   string               `json:"subject" yaml:"subject"`
	Grade     string               `json:"grade" yaml:"grade"`
	AccountID string               `json:"account_id,omitempty" yaml:"account_id,omitempty"` // owner whose credits gate generation
	Sections  map[SectionID]string `json:"sections" yaml:"sections"`
	UpdatedAt time.Time            `json:"updated_at" yaml:"updated_at"`
}

// Section returns the text of one section, or "" when it has none.
func (d DocumentState) Section(id SectionID) string {
	if d.Sections == nil {
		return ""
	}
	return d.Sections[id]
}

// GenerationContext is the read-only input of one workflow run.
type GenerationContext struct {
	Topic    string `json:"topic" yaml:"topic"`
	Subject  string `json:"subject" yaml:"subject"`
	Grade    string `json:"grade" yaml:"grade"`
	Guidance string `json:"guidance,omitempty" yaml:"guidance,omitempty"`

	// Excerpts holds the text of earlier sections the prompts refer to.
	Excerpts map[SectionID]string `json:"excerpts,omitempty" yaml:"excerpts,omitempty"`
}

// Ready reports whether the context carries the topic and subject every
// generation call needs.
func (c GenerationContext) Ready() bool {
	return strings.TrimSpace(c.Topic) != "" && strings.TrimSpace(c.Subject) != ""
}

// Excerpt returns the text of section id cut to limit bytes, with "..."
// appended when it was cut.
func (c GenerationContext) Excerpt(id SectionID, limit int) string {
	text := c.Excerpts[id]
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// NewGenerationContext builds the context for one run from a stored report.
func NewGenerationContext(doc DocumentState, guidance string) GenerationContext {
	excerpts := make(map[SectionID]string, len(doc.Sections))
	for id, text := range doc.Sections {
		if text != "" {
			excerpts[id] = text
		}
	}
	return GenerationContext{
		Topic:    doc.Topic,
		Subject:  doc.Subject,
		Grade:    doc.Grade,
		Guidance: guidance,
		Excerpts: excerpts,
	}
}
