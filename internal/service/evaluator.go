package service

import (
	"encoding/json"
	"exam_center_backend/internal/model"
	"strings"
)

// Verdict 单题判分结论
type Verdict int

const (
	VerdictIncorrect Verdict = iota
	VerdictCorrect
	VerdictNeedsManual
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "needs_manual"
	}
}

// answerEvaluator 每种题型一个实现，注册进 evaluators 表；
// 新增题型只需新增实现并注册
type answerEvaluator interface {
	Evaluate(userAnswer, correctAnswer string) Verdict
}

// exactMatchEvaluator 单选/判断/填空：去除首尾空格后精确比对
type exactMatchEvaluator struct{}

func (exactMatchEvaluator) Evaluate(userAnswer, correctAnswer string) Verdict {
	user := strings.TrimSpace(userAnswer)
	correct := strings.TrimSpace(correctAnswer)
	if user == "" || correct == "" {
		return VerdictIncorrect
	}
	if user == correct {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// choiceSetEvaluator 多选：两侧按 JSON 数组解析为集合后比对，
// 顺序无关；任一侧解析失败则退回原文精确比对
type choiceSetEvaluator struct{}

func (choiceSetEvaluator) Evaluate(userAnswer, correctAnswer string) Verdict {
	userSet, okUser := parseChoiceSet(userAnswer)
	correctSet, okCorrect := parseChoiceSet(correctAnswer)
	if !okUser || !okCorrect {
		return exactMatchEvaluator{}.Evaluate(userAnswer, correctAnswer)
	}
	if len(userSet) == 0 || len(correctSet) == 0 {
		return VerdictIncorrect
	}
	if equalSet(userSet, correctSet) {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// manualEvaluator 主观题一律交人工批改
type manualEvaluator struct{}

func (manualEvaluator) Evaluate(userAnswer, correctAnswer string) Verdict {
	return VerdictNeedsManual
}

var evaluators = map[model.ExamQuestionType]answerEvaluator{
	model.QuestionSingleChoice:   exactMatchEvaluator{},
	model.QuestionTrueFalse:      exactMatchEvaluator{},
	model.QuestionFillBlank:      exactMatchEvaluator{},
	model.QuestionMultipleChoice: choiceSetEvaluator{},
	model.QuestionSubjective:     manualEvaluator{},
}

// EvaluateAnswer 判定一条作答的对错；未知题型按精确比对处理，
// 任何输入都不会 panic 或返回错误
func EvaluateAnswer(questionType model.ExamQuestionType, userAnswer, correctAnswer string) Verdict {
	ev, ok := evaluators[questionType]
	if !ok {
		ev = exactMatchEvaluator{}
	}
	return ev.Evaluate(userAnswer, correctAnswer)
}

func parseChoiceSet(raw string) (map[string]struct{}, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]struct{}{}, true
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set, true
}

func equalSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
