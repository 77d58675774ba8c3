package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"PingUp/data/database/mgo/mongoutil"
	"PingUp/logger"
	"PingUp/tools/errs"
)

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second // 健康检查周期
	failThresh  = 3                // 连续失败阈值
)

// MongoManager 后台连接 Mongo（退避重试），连上后周期性健康检查。
type MongoManager struct {
	cfg *mongoutil.Config

	mu        sync.RWMutex
	client    *mongoutil.Client
	readyCh   chan struct{} // 首次就绪通知；只会被 close 一次
	readyOnce sync.Once
	healthy   atomic.Bool
	lastErr   atomic.Value // error

	log *zap.Logger
}

func NewManager(cfg *mongoutil.Config) *MongoManager {
	return &MongoManager{cfg: cfg, readyCh: make(chan struct{}), log: logger.Named("mongo")}
}

// backoff 指数退避 + 0~20% 抖动
func backoff(attempt int) time.Duration {
	if attempt > 6 {
		attempt = 6
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(d/5) + 1))
	return d - jitter/2
}

// StartAsync 一直运行到 ctx.Done()；首次连上时 close readyCh。
// 驱动自身负责断线重连，这里只记录健康状态。
func (m *MongoManager) StartAsync(ctx context.Context) {
	go func() {
		if !m.connect(ctx) {
			return
		}
		m.healthLoop(ctx)
	}()
}

func (m *MongoManager) connect(ctx context.Context) bool {
	for attempt := 0; ; attempt++ {
		cli, err := mongoutil.NewMongoDB(ctx, m.cfg)
		if err == nil {
			m.mu.Lock()
			m.client = cli
			m.mu.Unlock()
			m.healthy.Store(true)
			m.readyOnce.Do(func() { close(m.readyCh) })
			m.log.Info("connected", zap.String("database", m.cfg.Database))
			return true
		}
		m.lastErr.Store(err)
		m.log.Warn("connect failed", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func (m *MongoManager) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(healthEvery)
	defer ticker.Stop()
	fail := 0
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if m.client != nil {
				_ = m.client.Disconnect(context.Background())
				m.client = nil
			}
			m.mu.Unlock()
			m.healthy.Store(false)
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := m.client.Ping(pingCtx)
			cancel()
			if err != nil {
				fail++
				m.lastErr.Store(err)
				if fail >= failThresh && m.healthy.Swap(false) {
					m.log.Error("mongo unhealthy", zap.Int("failures", fail), zap.Error(err))
				}
				continue
			}
			if fail > 0 {
				m.log.Info("mongo recovered", zap.Int("failures", fail))
			}
			fail = 0
			m.healthy.Store(true)
		}
	}
}

// Ready 首次连接成功时会 close
func (m *MongoManager) Ready() <-chan struct{} { return m.readyCh }

func (m *MongoManager) Healthy() bool { return m.healthy.Load() }

// Err 最近一次错误
func (m *MongoManager) Err() error {
	if v := m.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (m *MongoManager) TryGetDB() (*mongo.Database, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, false
	}
	return m.client.GetDB(), true
}

// WaitReady 阻塞到首次连接成功或 ctx 结束
func (m *MongoManager) WaitReady(ctx context.Context) (*mongo.Database, error) {
	select {
	case <-m.readyCh:
		db, ok := m.TryGetDB()
		if !ok {
			return nil, errs.ErrInternalServer.WrapMsg("mongo disconnected")
		}
		return db, nil
	case <-ctx.Done():
		if err := m.Err(); err != nil {
			return nil, errs.WrapMsg(err, "mongo not ready")
		}
		return nil, ctx.Err()
	}
}
