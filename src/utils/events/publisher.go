package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"archiver/src/utils/config"
	"archiver/src/utils/monitoring"
	"archiver/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// Forwards transfer notifications to Redis. Each signal gets published to the
// channel carrying the signal's name.
type RedisPublisher struct {
	*task.Task

	redisConfig config.Redis

	monitor monitoring.Monitor

	client *redis.Client
	input  <-chan *Notification
}

func NewRedisPublisher(config *config.Config, name string) (self *RedisPublisher) {
	self = new(RedisPublisher)

	self.redisConfig = config.Redis

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect).
		WithWorkerPool(config.Redis.MaxWorkers)

	return
}

func (self *RedisPublisher) WithInputChannel(v <-chan *Notification) *RedisPublisher {
	self.input = v
	return self
}

func (self *RedisPublisher) WithMonitor(monitor monitoring.Monitor) *RedisPublisher {
	self.monitor = monitor
	return self
}

func (self *RedisPublisher) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *RedisPublisher) connect() (err error) {
	opts := redis.Options{
		ClientName:      fmt.Sprintf("archiver/%s", self.Name),
		Addr:            fmt.Sprintf("%s:%d", self.redisConfig.Host, self.redisConfig.Port),
		Password:        self.redisConfig.Password,
		Username:        self.redisConfig.User,
		DB:              self.redisConfig.DB,
		MinIdleConns:    self.redisConfig.MinIdleConns,
		MaxIdleConns:    self.redisConfig.MaxIdleConns,
		ConnMaxIdleTime: self.redisConfig.ConnMaxIdleTime,
		PoolSize:        self.redisConfig.MaxOpenConns,
		ConnMaxLifetime: self.redisConfig.ConnMaxLifetime,
	}

	if self.redisConfig.ClientCert != "" && self.redisConfig.ClientKey != "" && self.redisConfig.CaCert != "" {
		cert, err := tls.X509KeyPair([]byte(self.redisConfig.ClientCert), []byte(self.redisConfig.ClientKey))
		if err != nil {
			self.Log.WithError(err).Error("Failed to load client cert")
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(self.redisConfig.CaCert)) {
			return errors.New("failed to append CA cert to pool")
		}

		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: false,
			RootCAs:            caCertPool,
			ClientCAs:          caCertPool,
			Certificates:       []tls.Certificate{cert},
		}
	}

	self.client = redis.NewClient(&opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}

	return
}

func (self *RedisPublisher) run() (err error) {
	for notification := range self.input {
		notification := notification

		self.SubmitToWorker(func() {
			err := task.NewRetry().
				WithContext(self.Ctx).
				WithMaxElapsedTime(self.redisConfig.MaxElapsedTime).
				WithMaxInterval(self.redisConfig.MaxInterval).
				WithOnError(func(err error) error {
					self.Log.WithError(err).Error("Failed to publish notification, retrying")
					self.monitor.GetReport().RedisPublisher.Errors.Publish.Inc()
					return err
				}).
				Run(func() (err error) {
					return self.client.Publish(self.Ctx, string(notification.Signal), notification).Err()
				})
			if err != nil {
				self.Log.WithError(err).Error("Failed to publish notification, giving up")
				self.monitor.GetReport().RedisPublisher.Errors.PersistentFailure.Inc()
				return
			}
			self.monitor.GetReport().RedisPublisher.State.LastSuccessfulMessageTimestamp.Store(time.Now().Unix())
			self.monitor.GetReport().RedisPublisher.State.MessagesPublished.Inc()
		})
	}
	return nil
}
