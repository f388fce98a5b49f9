package service

import (
	"exam_center_backend/internal/model"
	"testing"
)

func TestEvaluateAnswer_SingleChoice(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		correct string
		want    Verdict
	}{
		{name: "correct", user: "A", correct: "A", want: VerdictCorrect},
		{name: "wrong", user: "B", correct: "A", want: VerdictIncorrect},
		{name: "whitespace trimmed", user: " A ", correct: "A", want: VerdictCorrect},
		{name: "case sensitive", user: "a", correct: "A", want: VerdictIncorrect},
		{name: "empty user answer", user: "", correct: "A", want: VerdictIncorrect},
		{name: "empty correct answer", user: "A", correct: "", want: VerdictIncorrect},
		{name: "both empty", user: "", correct: "", want: VerdictIncorrect},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateAnswer(model.QuestionSingleChoice, tc.user, tc.correct)
			if got != tc.want {
				t.Errorf("EvaluateAnswer(%q, %q) = %v, want %v", tc.user, tc.correct, got, tc.want)
			}
		})
	}
}

func TestEvaluateAnswer_MultipleChoice(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		correct string
		want    Verdict
	}{
		{name: "same order", user: `["A","B"]`, correct: `["A","B"]`, want: VerdictCorrect},
		{name: "order independent", user: `["B","A"]`, correct: `["A","B"]`, want: VerdictCorrect},
		{name: "subset is wrong", user: `["A"]`, correct: `["A","B"]`, want: VerdictIncorrect},
		{name: "superset is wrong", user: `["A","B","C"]`, correct: `["A","B"]`, want: VerdictIncorrect},
		{name: "duplicates collapse", user: `["A","A","B"]`, correct: `["B","A"]`, want: VerdictCorrect},
		{name: "items trimmed", user: `[" A ","B"]`, correct: `["A","B"]`, want: VerdictCorrect},
		{name: "empty user list", user: `[]`, correct: `["A","B"]`, want: VerdictIncorrect},
		{name: "empty string user", user: "", correct: `["A","B"]`, want: VerdictIncorrect},
		{name: "malformed falls back to exact mismatch", user: `["A","B"`, correct: `["A","B"]`, want: VerdictIncorrect},
		{name: "malformed both sides exact match", user: "A,B", correct: "A,B", want: VerdictCorrect},
		{name: "non-array json falls back", user: `"A"`, correct: `["A"]`, want: VerdictIncorrect},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateAnswer(model.QuestionMultipleChoice, tc.user, tc.correct)
			if got != tc.want {
				t.Errorf("EvaluateAnswer(%q, %q) = %v, want %v", tc.user, tc.correct, got, tc.want)
			}
		})
	}
}

func TestEvaluateAnswer_TrueFalseAndFillBlank(t *testing.T) {
	tests := []struct {
		name  string
		qtype model.ExamQuestionType
		user  string
		want  Verdict
	}{
		{name: "true false correct", qtype: model.QuestionTrueFalse, user: "true", want: VerdictCorrect},
		{name: "true false wrong", qtype: model.QuestionTrueFalse, user: "false", want: VerdictIncorrect},
		{name: "fill blank correct", qtype: model.QuestionFillBlank, user: "true", want: VerdictCorrect},
		{name: "fill blank padded", qtype: model.QuestionFillBlank, user: "  true  ", want: VerdictCorrect},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateAnswer(tc.qtype, tc.user, "true")
			if got != tc.want {
				t.Errorf("EvaluateAnswer(%s, %q) = %v, want %v", tc.qtype, tc.user, got, tc.want)
			}
		})
	}
}

func TestEvaluateAnswer_Subjective(t *testing.T) {
	if got := EvaluateAnswer(model.QuestionSubjective, "任意作答", "参考答案"); got != VerdictNeedsManual {
		t.Errorf("subjective answer should need manual grading, got %v", got)
	}
	// 即使作答与参考答案一字不差也不自动判对
	if got := EvaluateAnswer(model.QuestionSubjective, "参考答案", "参考答案"); got != VerdictNeedsManual {
		t.Errorf("identical subjective answer should still need manual grading, got %v", got)
	}
}

func TestEvaluateAnswer_UnknownTypeFallsBackToExactMatch(t *testing.T) {
	if got := EvaluateAnswer("matching", "A", "A"); got != VerdictCorrect {
		t.Errorf("unknown type exact match = %v, want VerdictCorrect", got)
	}
	if got := EvaluateAnswer("matching", "A", "B"); got != VerdictIncorrect {
		t.Errorf("unknown type mismatch = %v, want VerdictIncorrect", got)
	}
}

func TestVerdictString(t *testing.T) {
	if VerdictCorrect.String() != "correct" || VerdictIncorrect.String() != "incorrect" || VerdictNeedsManual.String() != "needs_manual" {
		t.Error("verdict labels changed, prometheus label values depend on them")
	}
}
