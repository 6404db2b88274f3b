package worker_test

import (
	"testing"

	"github.com/yazbekw/quizbot/internal/worker"
)

func TestPool_RunsAllJobs(t *testing.T) {
	pool := worker.NewPool[int](3, 8)

	for i := 0; i < 8; i++ {
		n := i
		pool.Submit("job", func() int { return n * 2 })
	}
	pool.Close()

	sum := 0
	count := 0
	for r := range pool.Results() {
		sum += r.Output
		count++
	}
	if count != 8 {
		t.Fatalf("got %d results, want 8", count)
	}
	if sum != 56 {
		t.Fatalf("sum = %d, want 56", sum)
	}
}

func TestPool_CloseDrainsResults(t *testing.T) {
	pool := worker.NewPool[string](1, 1)
	pool.Submit("only", func() string { return "done" })
	pool.Close()

	r, ok := <-pool.Results()
	if !ok || r.Output != "done" {
		t.Fatalf("result = %+v ok=%v", r, ok)
	}
	if _, ok := <-pool.Results(); ok {
		t.Fatal("results channel not closed")
	}
}
