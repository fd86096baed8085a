package worker

import (
	"context"
	"sync"
	"time"

	"socialgraph/pkg/metrics"
	"socialgraph/pkg/model"

	"go.uber.org/zap"
)

// Releaser 对象存储删除接口，由 uploader.MediaStorage 实现
type Releaser interface {
	Release(ctx context.Context, storageID string, kind model.MediaKind) error
}

// MediaReleaser 业务侧使用的异步释放入口
type MediaReleaser interface {
	Release(items ...model.MediaItem)
}

type ReleaseTask struct {
	StorageID string
	Kind      model.MediaKind
	Retry     int // 重试次数
}

// ReleasePool 媒体释放工作池
// 释放是尽力而为的：失败只记录日志并重试，不影响调用方的删除结果
type ReleasePool struct {
	TaskQueue  chan ReleaseTask
	RetryQueue chan ReleaseTask // 重试队列
	storage    Releaser
	WorkerNum  int
	MaxRetry   int // 最大重试次数
	RetryDelay time.Duration
	Timeout    time.Duration

	log     *zap.Logger
	metrics *metrics.Collector

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewReleasePool(storage Releaser, workerNum, bufferSize, maxRetry int, log *zap.Logger, m *metrics.Collector) *ReleasePool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize <= 1 {
		bufferSize = 2
	}
	return &ReleasePool{
		TaskQueue:  make(chan ReleaseTask, bufferSize),
		RetryQueue: make(chan ReleaseTask, bufferSize/2),
		storage:    storage,
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		RetryDelay: time.Second,
		Timeout:    10 * time.Second,
		log:        log,
		metrics:    m,
		quit:       make(chan struct{}),
	}
}

func (p *ReleasePool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.log.Info("media release pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止接收新任务，处理完队列中剩余任务（不再重试）后返回
func (p *ReleasePool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()

	for {
		select {
		case task := <-p.TaskQueue:
			p.process(-1, task, false)
		case task := <-p.RetryQueue:
			p.process(-1, task, false)
		default:
			return
		}
	}
}

// Release 将媒体加入释放队列，空对象跳过
func (p *ReleasePool) Release(items ...model.MediaItem) {
	for _, item := range items {
		if item.IsZero() {
			continue
		}
		p.AddTask(ReleaseTask{StorageID: item.StorageID, Kind: item.Kind})
	}
}

func (p *ReleasePool) AddTask(task ReleaseTask) {
	select {
	case <-p.quit:
		p.logFailedTask(task, nil)
		return
	default:
	}

	select {
	case p.TaskQueue <- task:
	default:
		p.log.Warn("release queue full, task dropped", zap.String("storage_id", task.StorageID))
		p.logFailedTask(task, nil)
	}
}

func (p *ReleasePool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.TaskQueue:
			p.process(id, task, true)
		}
	}
}

func (p *ReleasePool) process(id int, task ReleaseTask, allowRetry bool) {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	err := p.storage.Release(ctx, task.StorageID, task.Kind)
	cancel()

	p.metrics.RecordMediaRelease(err == nil)
	if err == nil {
		return
	}

	p.log.Warn("media release failed",
		zap.Int("worker", id),
		zap.String("storage_id", task.StorageID),
		zap.Int("attempt", task.Retry+1),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if !allowRetry || task.Retry >= p.MaxRetry {
		p.logFailedTask(task, err)
		return
	}
	task.Retry++
	select {
	case p.RetryQueue <- task:
	default:
		p.logFailedTask(task, err)
	}
}

func (p *ReleasePool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(task.Retry) * p.RetryDelay):
			case <-p.quit:
				p.logFailedTask(task, nil)
				return
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		}
	}
}

// logFailedTask 放弃的任务写入日志，供离线清理
func (p *ReleasePool) logFailedTask(task ReleaseTask, err error) {
	p.log.Error("media release abandoned",
		zap.String("storage_id", task.StorageID),
		zap.String("kind", string(task.Kind)),
		zap.Int("retries", task.Retry),
		zap.Error(err),
	)
}
