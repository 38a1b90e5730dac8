package chat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultShortQueryTokens 隐式指代判定的短查询词数上限
const defaultShortQueryTokens = 5

// RuleTable 意图关键词规则表
// 可从 YAML 文件热加载，缺省使用内置规则
type RuleTable struct {
	Version             int      `yaml:"version"`
	VisualKeywords      []string `yaml:"visual_keywords"`
	EmailKeywords       []string `yaml:"email_keywords"`
	ImplicitRefKeywords []string `yaml:"implicit_ref_keywords"`
	RedrawKeywords      []string `yaml:"redraw_keywords"`
	ShortQueryTokens    int      `yaml:"short_query_tokens"`
}

// DefaultRuleTable 内置规则表
func DefaultRuleTable() *RuleTable {
	return &RuleTable{
		Version:             1,
		VisualKeywords:      []string{"رسم", "جدول", "صمم", "بيانيا", "صورة", "visual", "chart", "graph", "diagram"},
		EmailKeywords:       []string{"ايميل", "email", "بريد", "دزها", "ارسل", "ابعت", "send", "mail"},
		ImplicitRefKeywords: []string{"ارسله", "ابعثها", "حطها", "ارسلها", "دزها", "ابعتها"},
		RedrawKeywords:      []string{"it", "them", "ارسمها", "صممها"},
		ShortQueryTokens:    defaultShortQueryTokens,
	}
}

// LoadRuleTable 从 YAML 文件加载规则表
// 文件中缺省的字段回退为内置规则
func LoadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var loaded RuleTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := DefaultRuleTable()
	if loaded.Version > 0 {
		rules.Version = loaded.Version
	}
	if len(loaded.VisualKeywords) > 0 {
		rules.VisualKeywords = loaded.VisualKeywords
	}
	if len(loaded.EmailKeywords) > 0 {
		rules.EmailKeywords = loaded.EmailKeywords
	}
	if len(loaded.ImplicitRefKeywords) > 0 {
		rules.ImplicitRefKeywords = loaded.ImplicitRefKeywords
	}
	if len(loaded.RedrawKeywords) > 0 {
		rules.RedrawKeywords = loaded.RedrawKeywords
	}
	if loaded.ShortQueryTokens > 0 {
		rules.ShortQueryTokens = loaded.ShortQueryTokens
	}

	return rules, nil
}
