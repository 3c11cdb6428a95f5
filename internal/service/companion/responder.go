package companion

import (
	"context"
	"fmt"
	"sync"

	"github.com/zhouzirui/supreme-chatbot/internal/analysis/emotion"
)

// Responder produces the companion reply for one user turn.
type Responder interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// Fallback answers without a language model, using canned supportive
// replies chosen by the keyword emotion heuristic.
type Fallback struct {
	replies map[emotion.Label][]string

	mu      sync.Mutex
	counter map[string]int
}

// NewFallback returns the heuristic responder.
func NewFallback() *Fallback {
	return &Fallback{
		replies: cannedReplies,
		counter: make(map[string]int),
	}
}

// Reply picks a reply for the detected emotion, rotating through the
// variants so repeated messages do not get identical answers.
func (f *Fallback) Reply(_ context.Context, userID, message string) (string, error) {
	decision := emotion.Analyze(message)
	options := f.replies[decision.Emotion]
	if len(options) == 0 {
		return "", fmt.Errorf("no reply available for emotion %q", decision.Emotion)
	}
	if decision.Emotion == emotion.Crisis {
		return options[0], nil
	}

	key := userID + "/" + string(decision.Emotion)
	f.mu.Lock()
	idx := f.counter[key] % len(options)
	f.counter[key]++
	f.mu.Unlock()
	return options[idx], nil
}

var cannedReplies = map[emotion.Label][]string{
	emotion.Crisis: {
		"I'm really glad you told me. You deserve support right now: please call or text 988 to reach the Suicide & Crisis Lifeline, or call emergency services if you are in immediate danger. I'm here with you.",
	},
	emotion.Sad: {
		"I'm sorry you're feeling this way. It makes sense to feel low sometimes. Would you like to tell me more about what's been weighing on you?",
		"That sounds really heavy. You don't have to carry it alone here. What has today been like for you?",
	},
	emotion.Anxious: {
		"It sounds like a lot of worry is building up. Let's slow down together: notice five things you can see around you. What's on your mind most right now?",
		"Anxiety can feel overwhelming. Try one slow breath in for 4 and out for 4. What do you think is driving the worry?",
	},
	emotion.Angry: {
		"It's understandable to feel frustrated. Do you want to tell me what happened?",
		"That sounds really unfair. Your feelings are valid. What would help you most right now?",
	},
	emotion.Lonely: {
		"Feeling alone is hard. I'm here and I'm listening. What would you like to talk about?",
		"Thank you for reaching out. You're not alone in this conversation. How have you been spending your days?",
	},
	emotion.Stressed: {
		"That's a lot on your plate. What is one small thing we could look at first?",
		"Being overwhelmed is exhausting. Would it help to list what's going on and pick a single next step?",
	},
	emotion.Happy: {
		"That's wonderful to hear! What made it feel so good?",
		"I'm really happy for you. Tell me more!",
	},
	emotion.Neutral: {
		"Thank you for sharing. How are you feeling about that?",
		"I'm listening. Tell me more about what's on your mind.",
	},
}
