package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/blues/crowdsale/internal/logger"
)

type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Engine   EngineConfig      `mapstructure:"engine"`
	Rates    map[string]string `mapstructure:"rates"` // 币种 -> 每单位原生资产折算的记账单位
	Task     TaskConfig        `mapstructure:"task"`
	Log      LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	MaxSkew int    `mapstructure:"max_skew"` // 签名时间戳允许的偏差, 秒
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // memory, postgres
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// EngineConfig 平台账户配置, 均为十六进制地址
type EngineConfig struct {
	Admin            string `mapstructure:"admin"`
	CommissionWallet string `mapstructure:"commission_wallet"`
	Escrow           string `mapstructure:"escrow"`
}

// AdminAddress 管理员地址
func (e EngineConfig) AdminAddress() (common.Address, error) {
	return parseAddress("engine.admin", e.Admin, true)
}

// EscrowAddress 托管地址
func (e EngineConfig) EscrowAddress() (common.Address, error) {
	return parseAddress("engine.escrow", e.Escrow, true)
}

// CommissionWalletAddress 佣金钱包地址, 可为空
func (e EngineConfig) CommissionWalletAddress() (common.Address, error) {
	return parseAddress("engine.commission_wallet", e.CommissionWallet, false)
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
	Workers  int `mapstructure:"workers"`  // 对账并发数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// ParsedRates 解析汇率表
func (c *Config) ParsedRates() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.Rates))
	for currency, raw := range c.Rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("rates.%s: %w", currency, err)
		}
		out[strings.ToUpper(currency)] = rate
	}
	return out, nil
}

func parseAddress(key, value string, required bool) (common.Address, error) {
	if value == "" {
		if required {
			return common.Address{}, fmt.Errorf("%s is required", key)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, value)
	}
	return common.HexToAddress(value), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_skew", 300)
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdsale")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// LoadFile 从指定文件加载配置, path 为空时按默认路径查找
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/crowdsale")
	}

	setDefaults(v)

	// 环境变量 CROWDSALE_DATABASE_HOST 覆盖 database.host
	v.SetEnvPrefix("crowdsale")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &config, nil
}

func Load() *Config {
	config, err := LoadFile("")
	if err != nil {
		logger.Fatal("%v", err)
	}
	return config
}
