package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Job 一个周期性任务。上一轮还没跑完时新的一拍直接跳过，
// 绝不排队堆积（外部请求慢的时候堆积只会雪上加霜）。
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running int32
	lastRun atomic.Value // time.Time
}

// LastRun 上次成功开始执行的时间，零值表示还没跑过
func (j *Job) LastRun() time.Time {
	if v := j.lastRun.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

func (j *Job) tick(ctx context.Context, logger *log.Logger) {
	if !atomic.CompareAndSwapInt32(&j.running, 0, 1) {
		logger.Printf("⏭️ 任务 %s 上一轮未结束，本拍跳过", j.Name)
		return
	}
	defer atomic.StoreInt32(&j.running, 0)

	j.lastRun.Store(time.Now())
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		logger.Printf("❌ 任务 %s 执行失败 (耗时 %v): %v", j.Name, time.Since(start), err)
		return
	}
	logger.Printf("✅ 任务 %s 执行完成 (耗时 %v)", j.Name, time.Since(start))
}

// Scheduler 固定节拍调度器
type Scheduler struct {
	jobs   []*Job
	logger *log.Logger
}

func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Add(job *Job) {
	s.jobs = append(s.jobs, job)
}

// Start 每个任务一个 goroutine，先立即跑一次再进入固定节拍。
// ctx 取消后等全部任务退出才返回。
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(j *Job) {
			defer wg.Done()
			s.logger.Printf("🚀 任务 %s 启动，周期 %v", j.Name, j.Interval)

			j.tick(ctx, s.logger)

			ticker := time.NewTicker(j.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					s.logger.Printf("🛑 任务 %s 停止", j.Name)
					return
				case <-ticker.C:
					j.tick(ctx, s.logger)
				}
			}
		}(job)
	}
	wg.Wait()
}
