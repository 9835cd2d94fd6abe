package conf

// Bootstrap 服务启动配置
type Bootstrap struct {
	Server *Server
	Data   *Data
	Auth   *Auth
	Engine *Engine
}

// Auth 鉴权配置
type Auth struct {
	JwtKey string
}

// Server 服务器配置
type Server struct {
	Http *HTTP
}

// HTTP HTTP 服务配置
type HTTP struct {
	Addr    string
	Timeout string
}

// Data 数据层配置
type Data struct {
	Database *Database
}

// Database 数据库连接配置
type Database struct {
	Driver string
	Source string
}

// Engine 指数引擎配置，结构与 comp_index 的 config.yaml 对应
type Engine struct {
	ItemsFile   string       `json:"items_file"`
	Llm         *LLM         `json:"llm"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Scoring     *Scoring     `json:"scoring"`
	Anchors     []*Anchor    `json:"anchors"`
	Db          *DB          `json:"db"`
}

// LLM 打分预言机的模型配置
type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// Log 引擎侧日志配置
type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Concurrency 引擎并发控制配置
type Concurrency struct {
	Qps     int32 `json:"qps"`
	Rpm     int32 `json:"rpm"`
	Workers int32 `json:"workers"`
}

// Scoring 打分策略配置
type Scoring struct {
	MaxRetries     int32 `json:"max_retries"`
	CallIntervalMs int32 `json:"call_interval_ms"`
}

// Anchor 趋势锚点配置
type Anchor struct {
	Label string `json:"label"`
	Days  int32  `json:"days"`
}

// DB 引擎侧数据库配置
type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
