// Package config 提供应用配置
// 默认值内置，可被 ~/.watira/config.yaml 覆盖
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Renderer RendererConfig `yaml:"renderer"`
	Planner  PlannerConfig  `yaml:"planner"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
	// StreamHeartbeatSeconds SSE 空闲心跳间隔（秒）
	StreamHeartbeatSeconds int `yaml:"stream_heartbeat_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path sqlite 文件路径，留空使用 ~/.watira/watira.db
	Path string `yaml:"path"`
}

// LLMConfig 生成模型配置（OpenAI 兼容 Chat API）
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// ChatModel 文本回答/闲聊模型
	ChatModel string `yaml:"chat_model"`
	// PlannerModel 意图分类与可视化类型分类模型
	PlannerModel string `yaml:"planner_model"`
	// CodeModel 可视化代码生成模型
	CodeModel string `yaml:"code_model"`
	// MaxHistoryTokens 发送给模型的历史 Token 预算
	MaxHistoryTokens int `yaml:"max_history_tokens"`
}

// SearchConfig 文档检索服务配置
type SearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	PageSize int    `yaml:"page_size"`
}

// RendererConfig 沙箱渲染服务配置
// 生成的代码在独立进程中执行，避免拖慢本进程的其他回合
type RendererConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PlannerConfig 意图解析配置
type PlannerConfig struct {
	// RulesPath 关键词规则表 YAML 路径，留空使用内置规则
	RulesPath string `yaml:"rules_path"`
	// HistoryLimit 每回合加载的历史消息条数
	HistoryLimit int `yaml:"history_limit"`
}

// NewConfig 创建配置：默认值 + 可选的 YAML 覆盖
func NewConfig() *Config {
	cfg := defaultConfig()

	path, err := configPath()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// 配置文件可选，不存在时直接使用默认值
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Printf("failed to parse config file %s: %v\n", path, err)
		return defaultConfig()
	}

	return cfg
}

// defaultConfig 内置默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:               ":19970",
			StreamHeartbeatSeconds: 30,
		},
		Database: DatabaseConfig{
			Path: "",
		},
		LLM: LLMConfig{
			BaseURL:          "https://api.openai.com/v1",
			ChatModel:        "gpt-4o",
			PlannerModel:     "gpt-4o-mini",
			CodeModel:        "gpt-4o",
			MaxHistoryTokens: 4000,
		},
		Search: SearchConfig{
			PageSize: 5,
		},
		Renderer: RendererConfig{
			BaseURL:        "http://127.0.0.1:19971",
			TimeoutSeconds: 60,
		},
		Planner: PlannerConfig{
			RulesPath:    "",
			HistoryLimit: 20,
		},
	}
}

// configPath 配置文件路径 ~/.watira/config.yaml
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".watira", "config.yaml"), nil
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewLLMConfig 创建模型配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewSearchConfig 创建检索配置
func NewSearchConfig(cfg *Config) *SearchConfig {
	return &cfg.Search
}

// NewRendererConfig 创建渲染配置
func NewRendererConfig(cfg *Config) *RendererConfig {
	return &cfg.Renderer
}

// NewPlannerConfig 创建意图解析配置
func NewPlannerConfig(cfg *Config) *PlannerConfig {
	return &cfg.Planner
}
