package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	billTimestampLayout = "20060102150405"
	billSuffixMin       = 100
	billSuffixMax       = 999
)

// BillNumberGenerator выдаёт номер «префикс + время до секунды + 3 случайные цифры».
// В пределах процесса суффикс не повторяется в ту же секунду; между процессами
// уникальность обеспечивает ограничение в базе.
type BillNumberGenerator struct {
	prefix string
	now    func() time.Time
	rnd    *rand.Rand

	mu     sync.Mutex
	second string
	issued map[int]struct{}
}

func NewBillNumberGenerator(prefix string, loc *time.Location) *BillNumberGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &BillNumberGenerator{
		prefix: prefix,
		now:    func() time.Time { return time.Now().In(loc) },
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		issued: make(map[int]struct{}),
	}
}

func (g *BillNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		stamp := g.now().Format(billTimestampLayout)
		if stamp != g.second {
			g.second = stamp
			g.issued = make(map[int]struct{})
		}

		if len(g.issued) < billSuffixMax-billSuffixMin+1 {
			suffix := billSuffixMin + g.rnd.Intn(billSuffixMax-billSuffixMin+1)
			for {
				if _, taken := g.issued[suffix]; !taken {
					break
				}
				suffix = billSuffixMin + g.rnd.Intn(billSuffixMax-billSuffixMin+1)
			}
			g.issued[suffix] = struct{}{}
			return fmt.Sprintf("%s%s%03d", g.prefix, stamp, suffix)
		}

		// все 900 суффиксов этой секунды заняты
		time.Sleep(10 * time.Millisecond)
	}
}
