package emotion

import (
	"strings"
)

// Label 表示从用户消息中识别出的情绪。
type Label string

const (
	Neutral  Label = "neutral"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Anxious  Label = "anxious"
	Angry    Label = "angry"
	Lonely   Label = "lonely"
	Stressed Label = "stressed"
	Crisis   Label = "crisis"
)

// Decision 给出情绪识别结果以及命中强度。
type Decision struct {
	Emotion Label
	Score   int
}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "glad", "great", "awesome", "amazing", "excited", "thank you", "thanks", "good news",
		"proud", "grateful", "relieved", "love it", "better today",
	},
	Sad: {
		"sad", "down", "depressed", "unhappy", "cry", "crying", "tears", "heartbroken", "miserable",
		"hopeless", "grief", "lost someone", "empty", "hurt",
	},
	Anxious: {
		"anxious", "anxiety", "worried", "worry", "nervous", "panic", "scared", "afraid", "fear",
		"can't breathe", "racing heart", "on edge", "overthinking",
	},
	Angry: {
		"angry", "furious", "mad", "annoyed", "pissed", "rage", "hate", "frustrated", "fed up", "unfair",
	},
	Lonely: {
		"lonely", "alone", "no one", "nobody", "isolated", "left out", "no friends", "by myself",
	},
	Stressed: {
		"stressed", "stress", "overwhelmed", "pressure", "deadline", "exhausted", "burned out", "burnt out",
		"too much", "tired",
	},
	Crisis: {
		"kill myself", "suicide", "suicidal", "end my life", "want to die", "hurt myself", "self harm",
		"self-harm", "no reason to live",
	},
}

// Analyze 根据用户话语推断情绪；危机信号优先于其他任何情绪。
func Analyze(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Emotion: Neutral}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	if scores[Crisis] > 0 {
		return Decision{Emotion: Crisis, Score: scores[Crisis]}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 && scores[Happy] > 0 {
		scores[Happy] += exclamations
	}

	best := Neutral
	bestScore := 0
	for _, label := range []Label{Sad, Anxious, Lonely, Stressed, Angry, Happy} {
		if s := scores[label]; s > bestScore {
			best, bestScore = label, s
		}
	}

	return Decision{Emotion: best, Score: bestScore}
}
