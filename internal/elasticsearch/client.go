package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/config"
)

func clientConfig(cfg *config.Config) elasticsearch.Config {
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Second * 10,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	return elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}
}

// NewClients connects to the cluster, retrying until it answers, and returns
// the low level client (bulk, cat, index deletion) and the typed client
// (search).
func NewClients(cfg *config.Config) (*elasticsearch.Client, *elasticsearch.TypedClient, error) {
	if len(cfg.Elasticsearch.Addresses) == 0 {
		log.Error().Msg("Elasticsearch addresses are not configured.")
		return nil, nil, errors.New("elasticsearch configuration missing")
	}
	esCfg := clientConfig(cfg)

	var esClient *elasticsearch.Client
	operation := func() error {
		var err error
		esClient, err = elasticsearch.NewClient(esCfg)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return err
		}

		// Verify connection (ping)
		res, errPing := esClient.Info(
			esClient.Info.WithContext(context.Background()),
		)
		if errPing != nil {
			log.Warn().Err(errPing).Msg("Attempt failed: Error during Elasticsearch Info() call (transport level)")
			return errPing
		}
		defer res.Body.Close()
		if res.IsError() {
			errMsg := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errMsg).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errMsg
		}
		log.Info().Str("server_info", res.String()).Msg("Elasticsearch client initialized and connection verified!")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Msg("Attempting to connect to Elasticsearch with retries...")
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		log.Error().Err(err).Msg("Failed to connect to Elasticsearch after multiple retries")
		return nil, nil, err
	}

	typedClient, err := elasticsearch.NewTypedClient(esCfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Typed Elasticsearch Client")
		return nil, nil, err
	}
	return esClient, typedClient, nil
}

// IndexName is the daily index of a stream, e.g. adminlogs-audit-2024-05-01.
func IndexName(prefix, kind string, day time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, kind, day.UTC().Format("2006-01-02"))
}

// IndexPattern matches every daily index of a stream.
func IndexPattern(prefix, kind string) string {
	return fmt.Sprintf("%s-%s-*", prefix, kind)
}
