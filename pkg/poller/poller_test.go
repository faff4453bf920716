package poller

import (
	"testing"
	"time"
)

type result struct {
	value int
}

// TestStart tests the single-slot admission rule.
func TestStart(t *testing.T) {
	t.Run("Second start is rejected while a fetch is outstanding", func(t *testing.T) {
		release := make(chan struct{})
		j := New[result]()

		if !j.Start(func() *result {
			<-release
			return &result{value: 1}
		}) {
			t.Fatal("Expected first start to be accepted")
		}
		if j.Start(func() *result { return &result{value: 2} }) {
			t.Error("Expected second start to be rejected")
		}

		close(release)
		j.Wait()

		if got := j.Current(); got == nil || got.value != 1 {
			t.Errorf("Expected result 1, got %+v", got)
		}
	})

	t.Run("Start is accepted again after the result lands", func(t *testing.T) {
		j := New[result]()

		j.Start(func() *result { return &result{value: 1} })
		j.Wait()

		if !j.Start(func() *result { return &result{value: 2} }) {
			t.Fatal("Expected start to be accepted after completion")
		}
		j.Wait()

		if got := j.Current(); got == nil || got.value != 2 {
			t.Errorf("Expected result 2, got %+v", got)
		}
	})
}

// TestPoll tests the non-blocking handoff.
func TestPoll(t *testing.T) {
	t.Run("Poll never blocks while the fetch runs", func(t *testing.T) {
		release := make(chan struct{})
		j := New[result]()
		j.Start(func() *result {
			<-release
			return &result{value: 7}
		})

		if !j.Poll() {
			t.Error("Expected poll to report an outstanding fetch")
		}
		if j.Current() != nil {
			t.Error("Expected no current result yet")
		}

		close(release)

		// The goroutine delivers into a buffered slot, so the result
		// arrives without another Poll running first.
		deadline := time.After(2 * time.Second)
		for j.Poll() {
			select {
			case <-deadline:
				t.Fatal("Fetch never completed")
			case <-time.After(time.Millisecond):
			}
		}

		if got := j.Current(); got == nil || got.value != 7 {
			t.Errorf("Expected result 7, got %+v", got)
		}
		if j.Active() {
			t.Error("Expected job to be idle after the result landed")
		}
	})

	t.Run("Poll on an idle job does nothing", func(t *testing.T) {
		j := New[result]()
		if j.Poll() {
			t.Error("Expected no outstanding fetch")
		}
		if j.Current() != nil {
			t.Error("Expected no current result")
		}
	})
}

// TestWait tests the blocking shutdown drain.
func TestWait(t *testing.T) {
	j := New[result]()
	j.Start(func() *result {
		time.Sleep(10 * time.Millisecond)
		return &result{value: 3}
	})

	j.Wait()

	if j.Active() {
		t.Error("Expected job to be idle after wait")
	}
	if got := j.Current(); got == nil || got.value != 3 {
		t.Errorf("Expected result 3, got %+v", got)
	}

	// Wait on an idle job returns immediately.
	j.Wait()
}
