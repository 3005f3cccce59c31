package kafkaconsumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

type fakeRegistry struct {
	mu          sync.Mutex
	loaded      map[transformer.Format]bool
	invalidated []transformer.Format
	gets        int
	failGets    int
}

func newFakeRegistry(loaded ...transformer.Format) *fakeRegistry {
	r := &fakeRegistry{loaded: map[transformer.Format]bool{}}
	for _, f := range loaded {
		r.loaded[f] = true
	}
	return r
}

func (r *fakeRegistry) Invalidate(f transformer.Format) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, f)
	was := r.loaded[f]
	delete(r.loaded, f)
	return was
}

func (r *fakeRegistry) Get(_ context.Context, f transformer.Format) (*transformer.Transformer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.failGets > 0 {
		r.failGets--
		return nil, errors.New("boom")
	}
	r.loaded[f] = true
	return transformer.NewBuilder().Format(f).Build()
}

type sess struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *sess) Claims() map[string][]int32 { return nil }
func (s *sess) MemberID() string           { return "" }
func (s *sess) GenerationID() int32        { return 0 }
func (s *sess) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, m.Offset)
	s.mu.Unlock()
}
func (s *sess) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *sess) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *sess) Context() context.Context                         { return s.ctx }
func (s *sess) Commit()                                          {}

type claim struct {
	part int32
	msgs chan *sarama.ConsumerMessage
}

func (c *claim) Topic() string                            { return "gridshift-reload" }
func (c *claim) Partition() int32                         { return c.part }
func (c *claim) InitialOffset() int64                     { return 0 }
func (c *claim) HighWaterMarkOffset() int64               { return 0 }
func (c *claim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func event(format string, version int) []byte {
	return fmt.Appendf(nil, `{"version":%d,"format":%q,"source":"test","ts":"2025-10-26T12:30:45Z"}`, version, format)
}

func msg(part int32, off int64, value []byte) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "gridshift-reload", Partition: part, Offset: off, Value: value}
}

func newConsumerForTest(reg Registry) *Consumer {
	cfg := FromReload(config.ReloadCfg{Brokers: "x", Topic: "gridshift-reload", GroupID: "g"})
	return New(cfg, slog.Default(), reg)
}

func TestFromReload(t *testing.T) {
	cfg := FromReload(config.ReloadCfg{Brokers: "a:1, b:2", Topic: "t", GroupID: "g"})
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "b:2" || cfg.Topic != "t" || cfg.InitialOffsetOldest {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestProcessOne_ReloadsLoadedFormat(t *testing.T) {
	reg := newFakeRegistry(transformer.SemiDynaEXE)
	c := newConsumerForTest(reg)

	if err := c.ProcessOne(context.Background(), msg(0, 1, event("SemiDynaEXE", 1))); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if reg.gets != 1 || !reg.loaded[transformer.SemiDynaEXE] {
		t.Fatalf("expected eager reload; gets=%d loaded=%v", reg.gets, reg.loaded)
	}
}

func TestProcessOne_UnloadedFormatOnlyInvalidates(t *testing.T) {
	reg := newFakeRegistry()
	c := newConsumerForTest(reg)

	if err := c.ProcessOne(context.Background(), msg(0, 1, event("TKY2JGD", 1))); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if reg.gets != 0 || len(reg.invalidated) != 1 {
		t.Fatalf("gets=%d invalidated=%v", reg.gets, reg.invalidated)
	}
}

func TestProcessOne_StaleVersionsIgnored(t *testing.T) {
	reg := newFakeRegistry(transformer.TKY2JGD)
	c := newConsumerForTest(reg)
	ctx := context.Background()

	for i, v := range []int{2, 2, 1, 3} {
		if err := c.ProcessOne(ctx, msg(0, int64(i), event("TKY2JGD", v))); err != nil {
			t.Fatalf("ProcessOne v%d: %v", v, err)
		}
	}
	if len(reg.invalidated) != 2 {
		t.Fatalf("invalidated %d times, want 2 (v2 and v3)", len(reg.invalidated))
	}

	// versions are tracked per format
	if err := c.ProcessOne(ctx, msg(0, 9, event("HyokoRev", 1))); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(reg.invalidated) != 3 {
		t.Fatalf("other format was deduplicated: %v", reg.invalidated)
	}
}

func TestProcessOne_InvalidEventsAreDropped(t *testing.T) {
	reg := newFakeRegistry()
	c := newConsumerForTest(reg)
	for _, v := range [][]byte{
		[]byte("not json"),
		event("nope", 1),
		event("TKY2JGD", 0),
	} {
		if err := c.ProcessOne(context.Background(), msg(0, 1, v)); err != nil {
			t.Fatalf("ProcessOne(%s): %v", v, err)
		}
	}
	if len(reg.invalidated) != 0 {
		t.Fatalf("invalid events reached the registry: %v", reg.invalidated)
	}
}

func TestSinglePartition_OrderAndCommitAfterWork(t *testing.T) {
	reg := newFakeRegistry(transformer.SemiDynaEXE)
	c := newConsumerForTest(reg)

	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}
	ch := make(chan *sarama.ConsumerMessage, 2)
	ch <- msg(0, 10, event("SemiDynaEXE", 1))
	ch <- msg(0, 11, event("SemiDynaEXE", 2))
	close(ch)

	if err := g.ConsumeClaim(s, &claim{part: 0, msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 2 || s.marked[0] != 10 || s.marked[1] != 11 {
		t.Fatalf("marked offsets=%v want [10 11]", s.marked)
	}
}

func TestRetry_CommitOnceAfterSuccess(t *testing.T) {
	reg := newFakeRegistry(transformer.PatchJGD)
	reg.failGets = 1
	c := newConsumerForTest(reg)
	ctx := context.Background()

	m := msg(0, 5, event("PatchJGD", 7))
	if err := c.ProcessOne(ctx, m); err == nil {
		t.Fatalf("expected error on first attempt")
	}

	// the failed attempt must not have recorded the version
	reg.loaded[transformer.PatchJGD] = true
	s := &sess{ctx: ctx}
	g := &groupHandler{process: c.ProcessOne}
	ch := make(chan *sarama.ConsumerMessage, 1)
	ch <- m
	close(ch)
	if err := g.ConsumeClaim(s, &claim{part: 0, msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim second attempt: %v", err)
	}
	if len(s.marked) != 1 || s.marked[0] != 5 {
		t.Fatalf("offset was not marked after success; marked=%v", s.marked)
	}
	if reg.gets != 2 {
		t.Fatalf("gets=%d want 2", reg.gets)
	}
}

func TestFailedProcess_DoesNotMark(t *testing.T) {
	reg := newFakeRegistry(transformer.PatchJGD)
	reg.failGets = 1
	c := newConsumerForTest(reg)
	s := &sess{ctx: context.Background()}
	g := &groupHandler{process: c.ProcessOne}
	ch := make(chan *sarama.ConsumerMessage, 1)
	ch <- msg(0, 3, event("PatchJGD", 1))
	close(ch)

	if err := g.ConsumeClaim(s, &claim{part: 0, msgs: ch}); err == nil {
		t.Fatalf("expected error")
	}
	if len(s.marked) != 0 {
		t.Fatalf("marked=%v want none", s.marked)
	}
}

func TestMultiPartition_Parallel(t *testing.T) {
	reg := newFakeRegistry()
	c := newConsumerForTest(reg)
	g := &groupHandler{process: c.ProcessOne}
	s := &sess{ctx: t.Context()}

	p0 := make(chan *sarama.ConsumerMessage, 2)
	p1 := make(chan *sarama.ConsumerMessage, 2)
	p0 <- msg(0, 1, event("TKY2JGD", 1))
	p0 <- msg(0, 2, event("TKY2JGD", 2))
	p1 <- msg(1, 1, event("HyokoRev", 1))
	p1 <- msg(1, 2, event("HyokoRev", 2))
	close(p0)
	close(p1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 0, msgs: p0}) }()
	go func() { defer wg.Done(); _ = g.ConsumeClaim(s, &claim{part: 1, msgs: p1}) }()
	wg.Wait()

	if len(s.marked) != 4 {
		t.Fatalf("expected 4 marks total; got %v", s.marked)
	}
}
