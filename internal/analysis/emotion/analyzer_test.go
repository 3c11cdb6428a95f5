package emotion

import "testing"

func TestAnalyzeSadUser(t *testing.T) {
	decision := Analyze("I feel so sad and empty today")
	if decision.Emotion != Sad {
		t.Fatalf("expected sad emotion, got %s", decision.Emotion)
	}
	if decision.Score < 3 {
		t.Fatalf("expected positive score, got %d", decision.Score)
	}
}

func TestAnalyzeCrisisWins(t *testing.T) {
	decision := Analyze("I'm so stressed and I want to die")
	if decision.Emotion != Crisis {
		t.Fatalf("expected crisis emotion, got %s", decision.Emotion)
	}
}

func TestAnalyzeAnxiousUser(t *testing.T) {
	decision := Analyze("I'm nervous, my exam makes me panic")
	if decision.Emotion != Anxious {
		t.Fatalf("expected anxious emotion, got %s", decision.Emotion)
	}
}

func TestAnalyzeHappyWithExclamation(t *testing.T) {
	decision := Analyze("Good news!! I got the job")
	if decision.Emotion != Happy {
		t.Fatalf("expected happy emotion, got %s", decision.Emotion)
	}
	if decision.Score <= 3 {
		t.Fatalf("expected exclamations to boost score, got %d", decision.Score)
	}
}

func TestAnalyzeNeutral(t *testing.T) {
	for _, text := range []string{"", "   ", "what time is it"} {
		if decision := Analyze(text); decision.Emotion != Neutral {
			t.Fatalf("expected neutral for %q, got %s", text, decision.Emotion)
		}
	}
}
