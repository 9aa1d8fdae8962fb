package events

import (
	"context"
	"log/slog"
	"time"
)

// Sink 处理一批事件
type Sink func(ctx context.Context, batch []DispatchEvent)

// Consumer 从 ChannelCollector 批量取事件交给 sink。
type Consumer struct {
	collector *ChannelCollector
	sink      Sink
	batchSize int
	interval  time.Duration
}

func NewConsumer(collector *ChannelCollector, sink Sink) *Consumer {
	if sink == nil {
		sink = LogSink(slog.Default())
	}
	return &Consumer{
		collector: collector,
		sink:      sink,
		batchSize: 100,         //批量大小
		interval:  time.Second, //最大等待时间
	}
}

// 阻塞 消费循环；ctx 结束或 collector 关闭时把剩余事件 flush 掉
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]DispatchEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(batch)
			return
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

// drain 取走 channel 里已经缓冲的事件，不等新的
func (c *Consumer) drain(batch []DispatchEvent) {
	for {
		select {
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
		default:
			c.flush(batch)
			return
		}
	}
}

func (c *Consumer) flush(batch []DispatchEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.sink(ctx, batch)
}

// LogSink 每个事件一行结构化日志
func LogSink(logger *slog.Logger) Sink {
	return func(ctx context.Context, batch []DispatchEvent) {
		for _, e := range batch {
			logger.LogAttrs(ctx, slog.LevelInfo, "dispatch event",
				slog.String("event_id", e.ID),
				slog.String("client_id", e.ClientID),
				slog.String("request_id", e.RequestID),
				slog.String("platform", e.Platform),
				slog.String("action", e.Action),
				slog.String("outcome", e.Outcome),
				slog.Int("status", e.Status),
				slog.String("post_id", e.PostID),
				slog.Duration("duration", e.Duration),
			)
		}
		logger.Debug("dispatch events: flushed", "count", len(batch))
	}
}
