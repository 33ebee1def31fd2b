package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Vector   VectorConfig
	Qdrant   QdrantConfig
	Milvus   MilvusConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Drafting DraftingConfig
	Webhook  WebhookConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type VectorConfig struct {
	Backend    string
	Collection string
	Dim        int
}

type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

type MilvusConfig struct {
	Endpoint string
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	RefineDrafts   bool
}

type PipelineConfig struct {
	ReviewScoreThreshold float32
	SearchLimit          int
	MinScore             float32
	OutputDir            string
	LogDir               string
	PastRFPsDir          string
}

// DraftingConfig carries the synthesizer heuristics as data so the
// English-only prefix list and legacy payload field ordering can be
// overridden without a rebuild.
type DraftingConfig struct {
	AnswerFields     []string
	SourceFields     []string
	QuestionPrefixes []string
	MinAnswerLen     int
	MaxQuestionMarks int
}

type WebhookConfig struct {
	Enabled    bool
	URL        string
	TimeoutSec int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/rfp-assist")

	viper.SetEnvPrefix("RFP_ASSIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 20971520)

	viper.SetDefault("sqlite.path", "./data/rfpassist.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlHours", 72)

	viper.SetDefault("vector.backend", "qdrant")
	viper.SetDefault("vector.collection", "past_rfp_answers")
	viper.SetDefault("vector.dim", 1536)

	viper.SetDefault("qdrant.host", "localhost")
	viper.SetDefault("qdrant.port", 6334)
	viper.SetDefault("qdrant.useTLS", false)

	viper.SetDefault("milvus.endpoint", "localhost:19530")

	viper.SetDefault("llm.model", "gpt-4-turbo")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.refineDrafts", false)

	viper.SetDefault("pipeline.reviewScoreThreshold", 0.60)
	viper.SetDefault("pipeline.searchLimit", 5)
	viper.SetDefault("pipeline.minScore", 0.3)
	viper.SetDefault("pipeline.outputDir", "./output")
	viper.SetDefault("pipeline.logDir", "./logs")
	viper.SetDefault("pipeline.pastRFPsDir", "./past_rfps")

	viper.SetDefault("drafting.answerFields", []string{"answer", "text", "text_content"})
	viper.SetDefault("drafting.sourceFields", []string{"source", "source_file"})
	viper.SetDefault("drafting.questionPrefixes", []string{
		"What ", "How ", "Why ", "When ", "Where ", "Which ", "Who ",
		"Do you", "Does ", "Is ", "Are ", "Can ", "Could ", "Would ", "Will ",
		"Please provide", "Please describe", "Please explain",
		"Describe ", "Explain ", "List ",
	})
	viper.SetDefault("drafting.minAnswerLen", 20)
	viper.SetDefault("drafting.maxQuestionMarks", 2)

	viper.SetDefault("webhook.enabled", false)
	viper.SetDefault("webhook.timeoutSec", 10)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
