// Package prompts holds the fixed instruction text for each research
// step. The engine treats these as opaque strings; the only dynamic
// parts are the research topic, the material under consideration, and
// today's date.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// Library renders the per-step prompt text. The clock is injectable so
// tests can pin the date line.
type Library struct {
	now func() time.Time
}

// NewLibrary creates a prompt library using the wall clock.
func NewLibrary() *Library {
	return &Library{now: time.Now}
}

// NewLibraryAt creates a prompt library with a fixed clock.
func NewLibraryAt(now func() time.Time) *Library {
	return &Library{now: now}
}

func (l *Library) dateLine() string {
	return fmt.Sprintf("Today's date is %s.", l.now().Format("Monday, January 2, 2006"))
}

// System returns the system prompt shared by all research steps.
func (l *Library) System() string {
	return fmt.Sprintf(`You are a research assistant that searches the web, reads sources, and synthesizes findings. Be factual and concise. Cite only information present in the provided material. %s`, l.dateLine())
}

// Plan asks for initial search queries for the topic.
func (l *Library) Plan(topic string, maxQueries int) string {
	return fmt.Sprintf(`Generate between 3 and %d web search queries to research the following topic. Make each query specific and self-contained. Vary the angle of attack rather than rephrasing the same question.

Topic: %s

%s

Respond with ONLY a JSON array of query strings:
["query one", "query two", ...]`, maxQueries, topic, l.dateLine())
}

// Summarize asks for a summary of one source relative to the topic.
func (l *Library) Summarize(topic, title, url, content string) string {
	return fmt.Sprintf(`Summarize the following source as it relates to the research topic. Extract only what the source actually says; do not add outside knowledge.

Topic: %s

Source title: %s
Source URL: %s

Content:
%s

Respond with ONLY a JSON object:
{"summary": "2-4 sentence summary", "key_facts": ["fact 1", "fact 2"]}`, topic, title, url, content)
}

// Evaluate asks whether the accumulated summaries answer the topic and
// what gaps remain.
func (l *Library) Evaluate(topic string, summaries []string) string {
	return fmt.Sprintf(`Assess whether the findings below are sufficient to answer the research topic.

Topic: %s

Findings so far:
%s

Respond with ONLY a JSON object:
{"goal_met": true/false, "gaps": [{"kind": "entity" or "conceptual", "description": "what is missing", "impact": "high"/"medium"/"low"}], "follow_up_queries": ["search query targeting a gap", ...]}

Leave gaps and follow_up_queries empty when goal_met is true.`, topic, numberedList(summaries))
}

// Rank asks for the sources ordered by usefulness to the topic.
func (l *Library) Rank(topic string, sources []string) string {
	return fmt.Sprintf(`Order the following sources from most to least useful for answering the research topic.

Topic: %s

Sources:
%s

Respond with ONLY a JSON array ordered best first, dropping sources that are not useful at all:
[{"url": "https://...", "relevance": "high"/"medium"/"low"}, ...]`, topic, numberedList(sources))
}

// Report asks for the final synthesis over the ranked material.
func (l *Library) Report(topic string, findings []string) string {
	return fmt.Sprintf(`Write a research report answering the topic below, synthesized strictly from the findings provided. Structure it with a short overview followed by the key points. Reference sources by URL where a claim comes from a specific one. Note remaining uncertainty explicitly.

Topic: %s

%s

Findings:
%s`, topic, l.dateLine(), numberedList(findings))
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}
