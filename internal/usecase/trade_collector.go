package usecase

import (
	"context"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	mid "stockscout/internal/middleware"
)

// TradeCollector feeds live trades from the market stream through the
// realtime pipeline into the trade processor.
type TradeCollector struct {
	stream  drepo.MarketStream
	proc    *TradeProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
	symbols []string
}

// NewTradeCollector creates a TradeCollector subscribed to symbols.
func NewTradeCollector(stream drepo.MarketStream, proc *TradeProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline, symbols []string) *TradeCollector {
	return &TradeCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, symbols: symbols}
}

// IsConnected reports the stream status.
func (c *TradeCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and begins consuming.
func (c *TradeCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, c.symbols); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	c.proc.Start(ctx)

	trCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, trCh, errCh)
	return nil
}

func (c *TradeCollector) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					trCh, errCh = c.stream.Read(ctx)
				}
			}
		case t := <-trCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TradeCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	c.proc.Close()
	return c.stream.Close()
}
