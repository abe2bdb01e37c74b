// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MockModel answers without calling any provider. It lets the workflow run
// offline and in demos.
type MockModel struct{}

var (
	countPattern = regexp.MustCompile(`Propose (\d+) `)
	headPattern  = regexp.MustCompile(`(?m)^- Start with the heading: "(.+)"$`)
	topicPattern = regexp.MustCompile(`(?m)^TOPIC: "(.*)"$`)
)

// Name returns "mock".
func (MockModel) Name() string { return "mock" }

// Complete returns canned text shaped like a real reply to prompt.
func (MockModel) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := "the topic"
	if m := topicPattern.FindStringSubmatch(prompt.User); m != nil {
		topic = m[1]
	}

	if prompt.JSON {
		n := 4
		if m := countPattern.FindStringSubmatch(prompt.User); m != nil {
			fmt.Sscanf(m[1], "%d", &n)
		}
		labels := make([]string, n)
		for i := range labels {
			labels[i] = fmt.Sprintf("Measure %d: Practical activity %d for %s", i+1, i+1, topic)
		}
		data, err := json.Marshal(labels)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var sb strings.Builder
	if m := headPattern.FindStringSubmatch(prompt.User); m != nil {
		sb.WriteString(m[1])
		sb.WriteString("\n\n")
	}
	sb.WriteString("**Purpose.** This draft was produced offline for ")
	sb.WriteString(topic)
	sb.WriteString(".\n\n")
	sb.WriteString("- The teacher prepares the activity.\n")
	sb.WriteString("- Pupils work in groups and present their results.\n")
	return sb.String(), nil
}
