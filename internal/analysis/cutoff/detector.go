package cutoff

import (
	"regexp"
	"strconv"
	"strings"
)

// Label 是对外展示的知识截止时间。
const Label = "October 2023"

const (
	cutoffYear  = 2023
	cutoffMonth = 10
)

var explicitPhrases = []string{
	"after october 2023",
	"beyond october 2023",
	"since october 2023",
	"post october 2023",
}

var months = map[string]int{
	"january":   1,
	"february":  2,
	"march":     3,
	"april":     4,
	"may":       5,
	"june":      6,
	"july":      7,
	"august":    8,
	"september": 9,
	"october":   10,
	"november":  11,
	"december":  12,
}

var (
	monthYearRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
	yearRe      = regexp.MustCompile(`\b(20\d\d)\b`)
)

// Detect 判断文本是否提到了知识截止时间（2023 年 10 月底）之后的时间。
// 规则依次为：显式短语、"月份 年份"、独立的 20xx 年份（>= 2024）。
func Detect(text string) bool {
	if text == "" {
		return false
	}

	lowered := strings.ToLower(text)
	for _, phrase := range explicitPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}

	for _, m := range monthYearRe.FindAllStringSubmatch(lowered, -1) {
		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if year > cutoffYear || (year == cutoffYear && months[m[1]] > cutoffMonth) {
			return true
		}
	}

	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err == nil && year > cutoffYear {
			return true
		}
	}

	return false
}
