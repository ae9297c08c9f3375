package config

type Config struct {
	MT       MTConf       `json:"mt"`
	Cache    CacheConf    `json:"cache"`
	Security SecurityConf `json:"security"`
	Sync     SyncConf     `json:"sync"`
	Telegram TelegramConf `json:"telegram"`
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

// MTConf 远程 MetaTrader 数据接口
type MTConf struct {
	BaseURL        string `json:"base_url"`        // 例如: https://mt.example.com/api
	TimeoutSeconds int    `json:"timeout_seconds"` // 请求超时（秒），默认30
	ProxyURL       string `json:"proxy_url"`       // 代理地址，例如: http://127.0.0.1:7890
}

type CacheConf struct {
	Driver   string `json:"driver"` // redis / memory，默认 memory
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"` // 键前缀，默认 tj
}

type SecurityConf struct {
	JWTSecret     string `json:"jwt_secret"`
	EncryptionKey string `json:"encryption_key"` // 账户密码加密密钥
}

type SyncConf struct {
	Enabled         bool   `json:"enabled"`          // 是否启用定时同步
	IntervalMinutes int    `json:"interval_minutes"` // 同步周期（分钟），默认15
	HistoryDays     int    `json:"history_days"`     // 首次同步拉取的历史天数，默认90
	Timezone        string `json:"timezone"`         // 日历统计使用的时区，默认UTC
}

const (
	DefaultSyncIntervalMinutes = 15
	DefaultHistoryDays         = 90
	DefaultMTTimeoutSeconds    = 30
	DefaultCachePrefix         = "tj"
)

// Normalize 填充默认值
func (c *Config) Normalize() {
	if c.Sync.IntervalMinutes <= 0 {
		c.Sync.IntervalMinutes = DefaultSyncIntervalMinutes
	}
	if c.Sync.HistoryDays <= 0 {
		c.Sync.HistoryDays = DefaultHistoryDays
	}
	if c.Sync.Timezone == "" {
		c.Sync.Timezone = "UTC"
	}
	if c.MT.TimeoutSeconds <= 0 {
		c.MT.TimeoutSeconds = DefaultMTTimeoutSeconds
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = DefaultCachePrefix
	}
}
