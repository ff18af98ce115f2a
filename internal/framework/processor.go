package framework

import (
	"context"
	"sync"
	"time"

	"github.com/bitleak/lmstfy/client"

	"mbu/esqsync/pkg/lmstfyx"
)

// Processor receives work items and runs the injected processing
// function, then settles each item according to the returned action:
// success acks, bury publishes the failure record to the fail queue and
// acks, release leaves the item for TTR redelivery.
type Processor struct {
	cfg        *ProcessorConfig
	proc       lmstfyx.Proc
	source     MessageSource
	failSink   FailureSink
	logger     Logger
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewProcessor creates a processor.
func NewProcessor(cfg *ProcessorConfig, proc lmstfyx.Proc, source MessageSource, failSink FailureSink, logger Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		proc:       proc,
		source:     source,
		failSink:   failSink,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start launches the processing loops.
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) error {
	p.logger.Infof(ctx, "[Processor] Starting with %d workers", p.cfg.Concurrency)

	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i
		p.wg.Add(1)
		go p.loop(ctx, workerID, inputChan)
	}

	return nil
}

// SignalShutdown switches the loops into drain mode.
func (p *Processor) SignalShutdown() {
	p.logger.Infof(context.Background(), "[Processor] Shutdown signal received")
	close(p.shutdownCh)
}

// Wait blocks until every processing loop has exited.
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] All workers exited")
}

// loop is a single processing loop.
func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()
	p.logger.Infof(ctx, "[Processor-%d] Started", workerID)

	for {
		select {
		case msg := <-inputChan:
			p.process(ctx, msg, workerID)

		case <-p.shutdownCh:
			// Drain: settle what is already buffered, then exit.
			p.logger.Infof(ctx, "[Processor-%d] Entering DRAIN mode", workerID)
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, msg, workerID)
					count++
				default:
					p.logger.Infof(ctx, "[Processor-%d] Drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

// process runs one work item through the processing function and settles
// it.
func (p *Processor) process(ctx context.Context, msg *Message, workerID int) {
	if msg == nil {
		return
	}

	startTime := time.Now()

	procCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	procCtx = context.WithValue(procCtx, "worker_id", workerID)
	procCtx = context.WithValue(procCtx, "message_id", msg.ID)

	p.logger.Infof(procCtx, "[Processor-%d] Processing message: %s", workerID, msg.ID)

	job := &client.Job{
		ID:    msg.ID,
		Queue: msg.Queue,
		Data:  msg.Data,
	}

	resp := p.proc(procCtx, job)
	p.settle(procCtx, msg, resp, workerID)

	duration := time.Since(startTime)
	p.logger.Infof(procCtx, "[Processor-%d] Message processed: %s, action: %d, duration: %v",
		workerID, msg.ID, resp.Action, duration)
}

// settle acts on the processing outcome. A failed settle never panics the
// loop; an unacked item comes back after TTR.
func (p *Processor) settle(ctx context.Context, msg *Message, resp *lmstfyx.JobResp, workerID int) {
	switch resp.Action {
	case lmstfyx.JobRespStatusSuccess:
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(ctx, "[Processor-%d] Ack failed for %s: %v", workerID, msg.ID, err)
		}

	case lmstfyx.JobRespStatusBury:
		if p.failSink != nil && p.cfg.FailQueue != "" && len(resp.Data) > 0 {
			if err := p.failSink.Publish(p.cfg.FailQueue, resp.Data, 0, 0); err != nil {
				p.logger.Errorf(ctx, "[Processor-%d] Fail-queue publish failed for %s: %v", workerID, msg.ID, err)
				// Keep the item in flight so it is not lost.
				return
			}
		}
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(ctx, "[Processor-%d] Ack failed for %s: %v", workerID, msg.ID, err)
		}

	case lmstfyx.JobRespStatusRelease:
		// No ack: the queue redelivers after TTR.
		p.logger.Warnf(ctx, "[Processor-%d] Releasing message %s for retry", workerID, msg.ID)
	}
}
