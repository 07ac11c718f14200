// cmd/worker-manager/infra.go
package main

import (
	"context"

	"bida-banking-workers/internal/api"
	"bida-banking-workers/internal/bank"
	"bida-banking-workers/internal/bank/notify"
	"bida-banking-workers/internal/bank/store"
	"bida-banking-workers/internal/common/aws"
	"bida-banking-workers/internal/common/camunda"
	"bida-banking-workers/internal/common/config"
	"bida-banking-workers/internal/common/database"
	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/internal/common/logger"
)

// infrastructure holds the optional backend connections.
type infrastructure struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

// connectInfrastructure opens only the backends the configuration asks for.
// Redis is also used for ID sequences when the postgres store is selected
// and a redis address is configured.
func connectInfrastructure(ctx context.Context, cfg *config.Config, log logger.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	retry := camunda.RetryConfig{MaxRetries: 15, BaseDelay: camunda.DefaultRetryConfig.BaseDelay, MaxDelay: camunda.DefaultRetryConfig.MaxDelay}

	needRedis := cfg.Banking.Store == config.StoreRedis ||
		(cfg.Banking.Store == config.StorePostgres && cfg.Database.Redis.Address != "")

	if cfg.Banking.Store == config.StorePostgres {
		err := camunda.WithBackoff(ctx, retry, "postgres connect", log, func(ctx context.Context) error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			infra.pg = pg
			return nil
		})
		if err != nil {
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		}
		log.Info("postgres connected", nil)
	}

	if needRedis {
		err := camunda.WithBackoff(ctx, retry, "redis connect", log, func(ctx context.Context) error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				_ = rc.Close()
				return err
			}
			infra.redis = rc
			return nil
		})
		if err != nil {
			infra.Close()
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		}
		log.Info("redis connected", nil)
	}

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			infra.Close()
			return nil, err
		}
		// Search is optional: an unreachable cluster only disables indexing.
		if err := es.Ping(ctx); err != nil {
			log.Warn("elasticsearch unreachable, document indexing disabled", map[string]interface{}{"error": err.Error()})
		} else {
			infra.es = es
			log.Info("elasticsearch connected", nil)
		}
	}

	return infra, nil
}

func (i *infrastructure) backends() store.Backends {
	var b store.Backends
	if i.pg != nil {
		b.Postgres = i.pg.DB
	}
	if i.redis != nil {
		b.Redis = i.redis.Client
	}
	return b
}

func (i *infrastructure) checks() map[string]api.CheckFunc {
	checks := make(map[string]api.CheckFunc)
	if i.pg != nil {
		checks["postgres"] = i.pg.Ping
	}
	if i.redis != nil {
		checks["redis"] = i.redis.Ping
	}
	if i.es != nil {
		checks["elasticsearch"] = i.es.Ping
	}
	return checks
}

func (i *infrastructure) Close() {
	if i.pg != nil {
		_ = i.pg.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

// buildNotifier returns nil when neither SES nor SNS is enabled.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (bank.Notifier, error) {
	awsCfg := cfg.Integrations.AWS
	if !awsCfg.SES.Enabled && !awsCfg.SNS.Enabled {
		return nil, nil
	}

	var (
		email notify.EmailSender
		topic notify.TopicPublisher
	)
	if awsCfg.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			return nil, err
		}
		email = ses
	}
	if awsCfg.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.TopicArn)
		if err != nil {
			return nil, err
		}
		topic = sns
	}

	log.Info("bank notifications enabled", map[string]interface{}{
		"ses": awsCfg.SES.Enabled,
		"sns": awsCfg.SNS.Enabled,
	})
	return notify.NewAWSNotifier(email, awsCfg.SES.OfficerEmail, topic, log), nil
}
