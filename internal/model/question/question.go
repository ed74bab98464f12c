package question

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Question 是前端展示的预设问题。
type Question struct {
	Title  string `json:"title" yaml:"title"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

type file struct {
	Questions []Question `yaml:"questions"`
}

// Defaults 返回内置的快捷问题。
func Defaults() []Question {
	return []Question{
		{Title: "Explain like I'm five", Prompt: "Explain how the internet works like I'm five years old."},
		{Title: "Study plan", Prompt: "Build me a two-week study plan for learning Python from scratch."},
		{Title: "Naija jollof vs Ghana", Prompt: "Settle it once and for all: Nigerian jollof or Ghanaian jollof?"},
		{Title: "Fix my CV", Prompt: "What are five quick ways to make my CV stand out to recruiters?"},
		{Title: "Latest news", Prompt: "What are today's top technology headlines? (switch to web mode)"},
	}
}

// Load 从形如 {questions: [{title, prompt}]} 的 YAML 文件读取问题，路径为空时返回默认值。
func Load(path string) ([]Question, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quick questions %s: %w", path, err)
	}

	var parsed file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse quick questions %s: %w", path, err)
	}

	out := make([]Question, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		q.Title = strings.TrimSpace(q.Title)
		q.Prompt = strings.TrimSpace(q.Prompt)
		if q.Prompt == "" {
			continue
		}
		if q.Title == "" {
			q.Title = q.Prompt
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return Defaults(), nil
	}
	return out, nil
}
