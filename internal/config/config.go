// Package config holds the endpoints of the docker-compose test environment.
// Defaults match the compose service names; a YAML file can override them for
// other setups.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Stars1233/pathway/fixtures/debezium"
	"github.com/Stars1233/pathway/fixtures/dynamodb"
	"github.com/Stars1233/pathway/fixtures/kafka"
	"github.com/Stars1233/pathway/fixtures/mongo"
	"github.com/Stars1233/pathway/fixtures/mysql"
	"github.com/Stars1233/pathway/fixtures/postgres"
)

type SQLEndpoint struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Config struct {
	Postgres SQLEndpoint `yaml:"postgres"`
	Pgvector SQLEndpoint `yaml:"pgvector"`
	QuestDB  SQLEndpoint `yaml:"questdb"`
	MySQL    SQLEndpoint `yaml:"mysql"`

	MongoDB struct {
		HostWithPort string `yaml:"hostWithPort"`
		ReplicaSet   string `yaml:"replicaSet"`
		Database     string `yaml:"database"`
	} `yaml:"mongodb"`

	Kafka struct {
		BootstrapServers string `yaml:"bootstrapServers"`
	} `yaml:"kafka"`

	Debezium struct {
		ConnectorURL string `yaml:"connectorUrl"`
	} `yaml:"debezium"`

	DynamoDB struct {
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"dynamodb"`
}

// Default returns the endpoints of the compose test environment.
func Default() Config {
	var cfg Config
	cfg.Postgres = SQLEndpoint{Host: "postgres", Port: 5432, Database: "tests", User: "user", Password: "password"}
	cfg.Pgvector = SQLEndpoint{Host: "pgvector", Port: 5432, Database: "tests", User: "user", Password: "password"}
	cfg.QuestDB = SQLEndpoint{Host: "questdb", Port: 8812, Database: "qdb", User: "admin", Password: "quest"}
	cfg.MySQL = SQLEndpoint{Host: "mysql", Port: 3306, Database: "testdb", User: "testuser", Password: "testpass"}
	cfg.MongoDB.HostWithPort = "mongodb:27017"
	cfg.MongoDB.ReplicaSet = "rs0"
	cfg.MongoDB.Database = "tests"
	cfg.Kafka.BootstrapServers = "kafka:9092"
	cfg.Debezium.ConnectorURL = "http://debezium:8083/connectors"
	cfg.DynamoDB.Region = "us-west-2"
	return cfg
}

// Load reads overrides from a YAML file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (e SQLEndpoint) PostgresSettings() postgres.Settings {
	return postgres.Settings{Host: e.Host, Port: e.Port, Database: e.Database, User: e.User, Password: e.Password}
}

func (e SQLEndpoint) MySQLSettings() mysql.Settings {
	return mysql.Settings{Host: e.Host, Port: e.Port, Database: e.Database, User: e.User, Password: e.Password}
}

func (c Config) MongoSettings() mongo.Settings {
	connString := fmt.Sprintf("mongodb://%s/?replicaSet=%s", c.MongoDB.HostWithPort, c.MongoDB.ReplicaSet)
	return mongo.Settings{ConnectionString: connString, Database: c.MongoDB.Database}
}

func (c Config) KafkaSettings() kafka.Settings {
	return kafka.Settings{BootstrapServers: c.Kafka.BootstrapServers}
}

func (c Config) DebeziumSettings() debezium.Settings {
	return debezium.Settings{URL: c.Debezium.ConnectorURL}
}

func (c Config) DynamoDBSettings() dynamodb.Settings {
	return dynamodb.Settings{Region: c.DynamoDB.Region, Endpoint: c.DynamoDB.Endpoint}
}

// DebeziumPostgresSource describes the configured Postgres to the registrar.
func (c Config) DebeziumPostgresSource(table string) debezium.PostgresSource {
	return debezium.PostgresSource{
		Host:             c.Postgres.Host,
		Port:             c.Postgres.Port,
		User:             c.Postgres.User,
		Password:         c.Postgres.Password,
		Database:         c.Postgres.Database,
		Table:            table,
		BootstrapServers: c.Kafka.BootstrapServers,
	}
}

// DebeziumMongoSource describes the configured MongoDB to the registrar.
func (c Config) DebeziumMongoSource() debezium.MongoSource {
	return debezium.MongoSource{
		HostsWithPort:    c.MongoDB.HostWithPort,
		ReplicaSet:       c.MongoDB.ReplicaSet,
		Database:         c.MongoDB.Database,
		BootstrapServers: c.Kafka.BootstrapServers,
	}
}
