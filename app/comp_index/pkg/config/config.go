package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Companies   []string          `yaml:"companies"`
	ItemsFile   string            `yaml:"items_file"` // 条目清单 YAML，启动时对齐到存储
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Anchors     []AnchorConfig    `yaml:"anchors"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
	Workers int `yaml:"workers"` // 单次分析运行的并发打分数，默认 1（串行）
}

// ScoringConfig 打分相关配置
type ScoringConfig struct {
	MaxRetries     int `yaml:"max_retries"`      // LLM 限流重试次数
	CallIntervalMs int `yaml:"call_interval_ms"` // 相邻两次打分调用之间的间隔（毫秒）
}

// AnchorConfig 趋势采样的时间锚点配置
type AnchorConfig struct {
	Label string `yaml:"label"`
	Days  int    `yaml:"days"` // 相对"当前"的天数偏移
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
