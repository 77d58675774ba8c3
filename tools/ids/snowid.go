package ids

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	nodeBits = 10
	seqBits  = 12
	maxNode  = 1<<nodeBits - 1
	seqMask  = 1<<seqBits - 1
	tsMask   = 1<<41 - 1

	// idWidth keeps GenerateString lexically sortable in the same order as the numeric id.
	idWidth = 19
)

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Generator 雪花ID生成器：41 位毫秒时间戳 | 10 位节点 | 12 位序列。
type Generator struct {
	mu       sync.Mutex
	epochMS  int64
	nodeID   int64
	seq      int64
	lastTSMS int64
	now      func() time.Time
}

func NewGenerator(nodeID int64) *Generator {
	if nodeID < 0 || nodeID > maxNode {
		nodeID = 1
	}
	return &Generator{
		epochMS: epoch.UnixMilli(),
		nodeID:  nodeID,
		now:     time.Now,
	}
}

var (
	defaultGen *Generator
	once       sync.Once
)

func std() *Generator {
	once.Do(func() { defaultGen = NewGenerator(1) })
	return defaultGen
}

// Generate 使用默认生成器生成一个新的雪花ID
func Generate() int64 { return std().Next() }

func GenerateString() string { return std().NextString() }

// SetNodeID 设置 nodeID（0~1023），在 main() 初始化时调用
func SetNodeID(nodeID int64) {
	g := std()
	if nodeID < 0 || nodeID > maxNode {
		nodeID = 1
	}
	g.mu.Lock()
	g.nodeID = nodeID
	g.mu.Unlock()
}

// Time returns the wall clock millisecond embedded in id.
func Time(id int64) time.Time {
	return time.UnixMilli((id >> (nodeBits + seqBits)) + epoch.UnixMilli()).UTC()
}

// ParseString reverses GenerateString.
func ParseString(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ids: parse %q: %w", s, err)
	}
	return id, nil
}

func (g *Generator) NextString() string {
	return fmt.Sprintf("%0*d", idWidth, g.Next())
}

func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		now := g.now().UnixMilli()
		if now < g.lastTSMS {
			// 时钟回拨，等待
			time.Sleep(time.Duration(g.lastTSMS-now) * time.Millisecond)
			continue
		}
		if now == g.lastTSMS {
			g.seq = (g.seq + 1) & seqMask
			if g.seq == 0 {
				// 序列溢出，等到下一毫秒
				for now <= g.lastTSMS {
					now = g.now().UnixMilli()
				}
			}
		} else {
			g.seq = 0
		}
		g.lastTSMS = now

		ts := (now - g.epochMS) & tsMask
		return (ts << (nodeBits + seqBits)) | (g.nodeID << seqBits) | g.seq
	}
}
