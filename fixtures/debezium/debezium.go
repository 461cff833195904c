// Package debezium registers change-data-capture connectors against the
// Debezium Connect control plane.
package debezium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Stars1233/pathway/fixtures/common"
)

type Settings struct {
	// URL of the Connect REST endpoint, e.g. "http://debezium:8083/connectors".
	URL string

	// Attempts and Delay bound the registration retry loop. The control plane
	// can take minutes to come up, so the defaults are generous (300 x 1s);
	// tune them down in unit tests.
	Attempts int
	Delay    time.Duration

	HTTPClient *http.Client
}

type Registrar struct {
	settings Settings
	client   *http.Client
}

func New(settings Settings) *Registrar {
	if settings.Attempts == 0 {
		settings.Attempts = common.DefaultWaitAttempts
	}
	if settings.Delay == 0 {
		settings.Delay = common.DefaultWaitInterval
	}
	client := settings.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Registrar{settings: settings, client: client}
}

// PostgresSource describes a Postgres table to capture.
type PostgresSource struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Table    string

	// BootstrapServers locates the Kafka cluster backing the schema history.
	BootstrapServers string
}

// MongoSource describes a MongoDB replica set to capture.
type MongoSource struct {
	HostsWithPort    string // "host:port"
	ReplicaSet       string
	Database         string
	BootstrapServers string
}

type connectorPayload struct {
	Name   string            `json:"name"`
	Config map[string]string `json:"config"`
}

// RegisterPostgres attaches a capture connector to a Postgres table and
// returns the identifier of the resulting change-event stream.
func (r *Registrar) RegisterPostgres(ctx context.Context, src PostgresSource) (string, error) {
	connectorID := common.RandomName("")
	payload := connectorPayload{
		Name: "values-connector-" + connectorID,
		Config: map[string]string{
			"connector.class":                          "io.debezium.connector.postgresql.PostgresConnector",
			"plugin.name":                              "pgoutput",
			"database.hostname":                        src.Host,
			"database.port":                            strconv.Itoa(src.Port),
			"database.user":                            src.User,
			"database.password":                        src.Password,
			"database.dbname":                          src.Database,
			"database.server.name":                     connectorID,
			"table.include.list":                       "public." + src.Table,
			"database.history.kafka.bootstrap.servers": src.BootstrapServers,
		},
	}
	if err := r.register(ctx, payload); err != nil {
		return "", err
	}
	return connectorID + ".public." + src.Table, nil
}

// RegisterMongoDB attaches a capture connector to a MongoDB database.
func (r *Registrar) RegisterMongoDB(ctx context.Context, src MongoSource) (string, error) {
	connectorID := common.RandomName("")
	payload := connectorPayload{
		Name: "values-connector-" + connectorID,
		Config: map[string]string{
			"connector.class":                          "io.debezium.connector.mongodb.MongoDbConnector",
			"mongodb.hosts":                            src.ReplicaSet + "/" + src.HostsWithPort,
			"mongodb.name":                             connectorID,
			"database.include.list":                    src.Database,
			"database.history.kafka.bootstrap.servers": src.BootstrapServers,
			"database.history.kafka.topic":             "dbhistory.mongo",
		},
	}
	if err := r.register(ctx, payload); err != nil {
		return "", err
	}
	return connectorID + "." + src.Database + ".", nil
}

// register POSTs the connector description, retrying at a fixed interval.
// Transport failures and non-2xx responses are treated alike: the control
// plane is simply not ready yet.
func (r *Registrar) register(ctx context.Context, payload connectorPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.settings.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := r.client.Do(req)
		if err != nil {
			slog.Info("debezium is not ready to register the connector yet", "err", err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			slog.Info("debezium is not ready to register the connector yet", "status", resp.StatusCode)
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.settings.Delay), uint64(r.settings.Attempts-1)),
		ctx)
	if err := backoff.Retry(attempt, bo); err != nil {
		return fmt.Errorf("failed to register connector %q: %w", payload.Name, err)
	}
	slog.Debug("registered connector", "name", payload.Name)
	return nil
}
