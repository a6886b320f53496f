package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Store   StoreConfig   `mapstructure:"store"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Relayer RelayerConfig `mapstructure:"relayer"`
	Signer  SignerConfig  `mapstructure:"signer"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	GrpcPort string `mapstructure:"grpc_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN 构造 gorm 使用的连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// URL 构造 golang-migrate 使用的连接串
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type StoreConfig struct {
	Kind string `mapstructure:"kind"` // "memory" or "postgres"
}

// BridgeConfig 协议层参数 (受信任签名者地址、最低 gas、字段长度上限等)
type BridgeConfig struct {
	ProgramID              string        `mapstructure:"program_id"`
	ChainSignaturesProgram string        `mapstructure:"chain_signatures_program"`
	TrustedSignerAddress   string        `mapstructure:"trusted_signer_address"`
	DepositRecipient       string        `mapstructure:"deposit_recipient"`
	MPCBasePublicKey       string        `mapstructure:"mpc_base_public_key"`
	MinGasLimit            uint64        `mapstructure:"min_gas_limit"`
	MaxPathLen             int           `mapstructure:"max_path_len"`
	MaxAlgoLen             int           `mapstructure:"max_algo_len"`
	MaxDestLen             int           `mapstructure:"max_dest_len"`
	MaxParamsLen           int           `mapstructure:"max_params_len"`
	PendingTTL             time.Duration `mapstructure:"pending_ttl"`
	SweepSpec              string        `mapstructure:"sweep_spec"`
	SignRespondTopic       string        `mapstructure:"sign_respond_topic"`
	NotificationTopic      string        `mapstructure:"notification_topic"`
	SignatureRequestTopic  string        `mapstructure:"signature_request_topic"`
	AddressCacheTTL        time.Duration `mapstructure:"address_cache_ttl"`
}

type RelayerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	RpcUrl              string        `mapstructure:"rpc_url"`
	SignatureTopic      string        `mapstructure:"signature_topic"`
	ReadResponseTopic   string        `mapstructure:"read_response_topic"`
	SignatureTimeout    time.Duration `mapstructure:"signature_timeout"`
	ReadResponseTimeout time.Duration `mapstructure:"read_response_timeout"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	Concurrency         int           `mapstructure:"concurrency"`
}

// SignerConfig 本地开发用的模拟 MPC 签名者
type SignerConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Mnemonic       string `mapstructure:"mnemonic"`
	DerivationPath string `mapstructure:"derivation_path"`
}

var Global Config

func Init() {
	if err := Load(""); err != nil {
		log.Fatalf("Unable to load config, %v", err)
	}
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// Load 读取配置到 Global。path 为空时在 . 和 ./config 下查找 config.yaml
func Load(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 环境变量设置: bridge.min_gas_limit -> BRIDGE_MIN_GAS_LIMIT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	Global = cfg
	return nil
}

// Validate 检查会直接影响签名校验与交易构造的字段
func (c Config) Validate() error {
	if !common.IsHexAddress(c.Bridge.TrustedSignerAddress) {
		return fmt.Errorf("bridge.trusted_signer_address is not a hex address: %q", c.Bridge.TrustedSignerAddress)
	}
	if !common.IsHexAddress(c.Bridge.DepositRecipient) {
		return fmt.Errorf("bridge.deposit_recipient is not a hex address: %q", c.Bridge.DepositRecipient)
	}
	if c.Store.Kind != "memory" && c.Store.Kind != "postgres" {
		return fmt.Errorf("store.kind must be memory or postgres, got %q", c.Store.Kind)
	}
	if c.Bridge.MaxPathLen <= 0 || c.Bridge.MaxAlgoLen <= 0 || c.Bridge.MaxDestLen <= 0 || c.Bridge.MaxParamsLen < 0 {
		return fmt.Errorf("bridge max_*_len must be positive")
	}
	return nil
}

// Defaults 返回仅包含默认值的配置 (测试与 CLI 使用)
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")
	v.SetDefault("app.grpc_port", "50051")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "bridge_user")
	v.SetDefault("db.password", "bridge_password")
	v.SetDefault("db.name", "bridge_db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.mq_type", "redis")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	v.SetDefault("store.kind", "memory")

	v.SetDefault("bridge.program_id", "3si68i2yXFAGy5k8BpqGpPJR5wE27id1Jenx3uN8GCws")
	v.SetDefault("bridge.chain_signatures_program", "4uvZW8K4g4jBg7dzPNbb9XDxJLFBK7V6iC76uofmYvEU")
	v.SetDefault("bridge.trusted_signer_address", "0x00A40C2661293d5134E53Da52951A3F7767836Ef")
	v.SetDefault("bridge.deposit_recipient", "0xdcF0f02E13eF171aA028Bc7d4c452CFCe3C2E18f")
	v.SetDefault("bridge.mpc_base_public_key", "0x044eef776e4f257d68983e45b340c2e9546c5df95447900b6aadfec68fb46fdee257e26b8ba383ddba9914b33c60e869265f859566fff4baef283c54d821ca3b64")
	v.SetDefault("bridge.min_gas_limit", 21000)
	v.SetDefault("bridge.max_path_len", 256)
	v.SetDefault("bridge.max_algo_len", 64)
	v.SetDefault("bridge.max_dest_len", 256)
	v.SetDefault("bridge.max_params_len", 1024)
	v.SetDefault("bridge.pending_ttl", 24*time.Hour)
	v.SetDefault("bridge.sweep_spec", "@every 1m")
	v.SetDefault("bridge.sign_respond_topic", "bridge.sign_respond")
	v.SetDefault("bridge.notification_topic", "bridge.notifications")
	v.SetDefault("bridge.signature_request_topic", "bridge.signature_requested")
	v.SetDefault("bridge.address_cache_ttl", 10*time.Minute)

	v.SetDefault("relayer.enabled", false)
	v.SetDefault("relayer.rpc_url", "https://ethereum-sepolia-rpc.publicnode.com")
	v.SetDefault("relayer.signature_topic", "bridge.signature_responded")
	v.SetDefault("relayer.read_response_topic", "bridge.read_responded")
	v.SetDefault("relayer.signature_timeout", 300*time.Second)
	v.SetDefault("relayer.read_response_timeout", 300*time.Second)
	v.SetDefault("relayer.receipt_timeout", 120*time.Second)
	v.SetDefault("relayer.concurrency", 4)

	v.SetDefault("signer.enabled", false)
	v.SetDefault("signer.derivation_path", "m/44'/60'/0'/0/0")
}
