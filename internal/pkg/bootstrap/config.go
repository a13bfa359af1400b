// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了所有服务共享的基础设施配置和业务开关。
// 配置来源：先读 yaml 文件（CONFIG_FILE 指定），再用环境变量覆盖关键项。
type Config struct {
	App struct {
		// FulfillmentTimeout 是单笔订单编排的总 deadline。
		FulfillmentTimeout time.Duration `yaml:"fulfillmentTimeout"`
		// BatchParallelism 是批量下单的最大并发度 K。
		BatchParallelism int64 `yaml:"batchParallelism"`
		// QueueCapacity 是后台工作队列的缓冲容量。
		QueueCapacity int `yaml:"queueCapacity"`
		// StreamInterval 是订单快照流的产出间隔。
		StreamInterval time.Duration `yaml:"streamInterval"`
	} `yaml:"app"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
	} `yaml:"infra"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init 加载配置。必须在 StartService 之前调用一次。
func Init() {
	configOnce.Do(func() {
		currentConfig = defaultConfig()

		if path := os.Getenv("CONFIG_FILE"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Fatalf("FATAL: cannot read config file %s: %v", path, err)
			}
			if err := yaml.Unmarshal(data, &currentConfig); err != nil {
				log.Fatalf("FATAL: cannot parse config file %s: %v", path, err)
			}
		}

		applyEnvOverrides(&currentConfig)
	})
}

// GetCurrentConfig 返回当前生效的配置快照。
func GetCurrentConfig() Config {
	return currentConfig
}

func defaultConfig() Config {
	var cfg Config
	cfg.App.FulfillmentTimeout = 30 * time.Second
	cfg.App.BatchParallelism = 3
	cfg.App.QueueCapacity = 1024
	cfg.App.StreamInterval = 1 * time.Second
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/orderflow?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

// applyEnvOverrides 用环境变量覆盖部署相关的配置项。
// 业务参数（超时、并发度等）只走配置文件，避免环境变量散落。
func applyEnvOverrides(cfg *Config) {
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Mysql.DSN = getEnv("MYSQL_DSN", cfg.Infra.Mysql.DSN)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if servers := os.Getenv("ZK_SERVERS"); servers != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(servers, ",")
	}
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
