package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task 异步任务，Run 需要幂等，失败后会被重试
type Task struct {
	Name  string
	Run   func(ctx context.Context) error
	Retry int // 重试次数
}

// DeadLetterFunc 任务最终失败时回调
type DeadLetterFunc func(task Task, err error)

type WorkerPool struct {
	TaskQueue  chan Task
	RetryQueue chan Task // 重试队列
	WorkerNum  int
	MaxRetry   int // 最大重试次数

	logger     *zap.Logger
	retryDelay func(attempt int) time.Duration
	onDead     DeadLetterFunc
	dropped    int64 // 停止时丢弃的任务数

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option 协程池配置项
type Option func(*WorkerPool)

// WithRetryDelay 自定义重试延迟
func WithRetryDelay(fn func(attempt int) time.Duration) Option {
	return func(p *WorkerPool) { p.retryDelay = fn }
}

// WithDeadLetter 设置死信回调
func WithDeadLetter(fn DeadLetterFunc) Option {
	return func(p *WorkerPool) { p.onDead = fn }
}

func NewWorkerPool(logger *zap.Logger, workerNum, bufferSize, maxRetry int, opts ...Option) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize < 2 {
		bufferSize = 2
	}
	ctx, cancel := context.WithCancel(context.Background())

	p := &WorkerPool{
		TaskQueue:  make(chan Task, bufferSize),
		RetryQueue: make(chan Task, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		logger:     logger,
		// 延迟重试，避免立即重试
		retryDelay: func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.logger.Info("worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止所有协程，队列中剩余的任务逐条记录后丢弃
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()

	for _, queue := range []chan Task{p.TaskQueue, p.RetryQueue} {
	drain:
		for {
			select {
			case task := <-queue:
				p.dropAtShutdown(task)
			default:
				break drain
			}
		}
	}
	p.logger.Info("worker pool stopped", zap.Int64("dropped", atomic.LoadInt64(&p.dropped)))
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.TaskQueue:
			p.process(id, task)
		}
	}
}

func (p *WorkerPool) process(id int, task Task) {
	err := task.Run(p.ctx)
	if err == nil {
		return
	}

	p.logger.Warn("task failed",
		zap.Int("worker", id),
		zap.String("task", task.Name),
		zap.Int("attempt", task.Retry+1),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry >= p.MaxRetry {
		p.logFailedTask(task, err)
		return
	}
	task.Retry++
	select {
	case p.RetryQueue <- task:
	default:
		p.logger.Warn("retry queue full", zap.String("task", task.Name))
		p.logFailedTask(task, err)
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.RetryQueue:
			select {
			case <-p.ctx.Done():
				p.dropAtShutdown(task)
				return
			case <-time.After(p.retryDelay(task.Retry)):
			}

			// 重新加入主队列
			select {
			case p.TaskQueue <- task:
			default:
				p.logger.Warn("main queue full, retry dropped", zap.String("task", task.Name))
				p.logFailedTask(task, nil)
			}
		}
	}
}

func (p *WorkerPool) logFailedTask(task Task, err error) {
	p.logger.Error("dead letter: task failed permanently",
		zap.String("task", task.Name),
		zap.Int("retries", task.Retry),
		zap.Error(err),
	)
	if p.onDead != nil {
		p.onDead(task, err)
	}
}

func (p *WorkerPool) dropAtShutdown(task Task) {
	atomic.AddInt64(&p.dropped, 1)
	p.logger.Warn("task dropped at shutdown",
		zap.String("task", task.Name),
		zap.Int("retries", task.Retry),
	)
}

// AddTask 非阻塞入队，队列满时直接进入死信
func (p *WorkerPool) AddTask(task Task) bool {
	select {
	case p.TaskQueue <- task:
		return true
	default:
		p.logger.Warn("worker pool queue full, dropping task", zap.String("task", task.Name))
		p.logFailedTask(task, nil)
		return false
	}
}
