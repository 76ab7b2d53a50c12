package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/havenloop/haven-backend/internal/pipeline"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AudioWorkerPool consumes pipeline tasks from a Redis stream. One message
// per uploaded recording; each consumer hands the record to the orchestrator
// and acks regardless of the pipeline outcome (stage failures are persisted
// on the record, not redelivered).
type AudioWorkerPool struct {
	Redis        *redis.Client
	Orchestrator *pipeline.Orchestrator
	NumWorkers   int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AudioWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Orchestrator == nil {
		return errors.New("AudioWorkerPool missing dependency: Redis/Orchestrator must be set")
	}
	if p.Stream == "" {
		p.Stream = "audio:analyze"
	}
	if p.Group == "" {
		p.Group = "audio-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AudioWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AudioWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	recordID := getStr("record_id")
	if recordID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":  msg.ID,
		"record_id": recordID,
		"user_id":   getStr("user_id"),
	})
	log.Info("processing audio record")

	if err := p.Orchestrator.Process(ctx, recordID); err != nil {
		log.WithError(err).Error("pipeline task failed")
		return
	}
	log.Debug("pipeline task finished")
}
