package workerpool

import (
	"testing"
)

// TestS5_FIFOUnderLoad covers S5: a pool with 4 workers, 100 tasks each
// returning its own index, joined in order — every join returns the
// expected index regardless of thread scheduling.
func TestS5_FIFOUnderLoad(t *testing.T) {
	p := New(4)
	defer p.Stop()

	const n = 100
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = p.Enqueue(func() (any, error) {
			return i, nil
		})
	}

	for i, task := range tasks {
		got, err := task.Join()
		if err != nil {
			t.Fatalf("task %d: unexpected error: %v", i, err)
		}
		if got != i {
			t.Fatalf("task %d: result = %v, want %d", i, got, i)
		}
	}
}

func TestErrorPropagation(t *testing.T) {
	p := New(2)
	defer p.Stop()

	wantErr := errTest{"boom"}
	task := p.Enqueue(func() (any, error) {
		return nil, wantErr
	})

	_, err := task.Join()
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }

func TestConcurrentSubmission(t *testing.T) {
	p := New(8)
	defer p.Stop()

	const n = 500
	results := make(chan int, n)
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = p.Enqueue(func() (any, error) {
			return i * 2, nil
		})
	}
	for _, task := range tasks {
		v, err := task.Join()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results <- v.(int)
	}
	close(results)

	seen := make(map[int]bool)
	for v := range results {
		if v%2 != 0 {
			t.Fatalf("got odd result %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct results, want %d", len(seen), n)
	}
}

func TestPoolGrowsQueue(t *testing.T) {
	// Submitting far more tasks than the initial ring capacity (16)
	// exercises the doubling-growth path without losing FIFO order.
	p := New(1)
	defer p.Stop()

	const n = 200
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = p.Enqueue(func() (any, error) {
			return i, nil
		})
	}
	for i, task := range tasks {
		got, _ := task.Join()
		if got != i {
			t.Fatalf("task %d out of order: got %v", i, got)
		}
	}
}
