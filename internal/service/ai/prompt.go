package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/supreme-chatbot/internal/analysis/emotion"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
)

// BuildSystemPrompt creates the system prompt for the companion persona,
// optionally steered by the emotion detected in the latest user message.
func BuildSystemPrompt(p persona.Persona, decision emotion.Decision) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "You are %s, a supportive listening companion.\n", p.Name)
	fmt.Fprintf(&builder, "Tone: %s.\n", p.Tone)
	if p.PromptHint != "" {
		builder.WriteString(p.PromptHint)
		builder.WriteString("\n")
	}
	if len(p.Traits) > 0 {
		fmt.Fprintf(&builder, "Personality: %s.\n", strings.Join(p.Traits, ", "))
	}

	if len(p.Boundaries) > 0 {
		builder.WriteString("\nRules:\n")
		for _, rule := range p.Boundaries {
			builder.WriteString("- ")
			builder.WriteString(rule)
			builder.WriteString("\n")
		}
	}

	if hint := describeEmotion(decision.Emotion); hint != "" {
		builder.WriteString("\nAbout the user's current state: ")
		builder.WriteString(hint)
		builder.WriteString("\n")
	}

	builder.WriteString("\nAnswer in plain text, at most a few sentences.")
	return builder.String()
}

func describeEmotion(label emotion.Label) string {
	switch label {
	case emotion.Crisis:
		return "they may be in danger. Respond with care, encourage them to call or text 988 right now, and stay with them."
	case emotion.Sad:
		return "they sound low. Offer gentle comfort and validation before anything else."
	case emotion.Anxious:
		return "they sound anxious. Slow the pace and offer a simple grounding step."
	case emotion.Angry:
		return "they sound frustrated. Stay calm and acknowledge what feels unfair."
	case emotion.Lonely:
		return "they feel alone. Emphasise that you are here and listening."
	case emotion.Stressed:
		return "they sound overwhelmed. Help them break things into one small next step."
	case emotion.Happy:
		return "they sound positive. Share their good mood warmly."
	default:
		return ""
	}
}
