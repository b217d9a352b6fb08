package resume

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/funvibe/cppi/internal/diagnostics"
)

func readInt(prompt string) Step[int] {
	return Await(prompt, func(in string) Step[int] {
		return From(strconv.Atoi(in))
	})
}

func TestRunWithScript(t *testing.T) {
	sum := Then(readInt("a? "), func(a int) Step[int] {
		return Map(readInt("b? "), func(b int) (int, error) { return a + b, nil })
	})
	got, err := Run(context.Background(), &Driver{Host: &Script{Lines: []string{"2", "40"}}}, sum)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestPendingAndResume(t *testing.T) {
	s := Each([]string{"x", "y"}, func(_ int, name string) Step[int] { return readInt(name) })
	var prompts []string
	inputs := []string{"1", "2"}
	for i := 0; !s.Finished(); i++ {
		p, ok := s.Pending()
		if !ok {
			t.Fatalf("step neither finished nor waiting")
		}
		prompts = append(prompts, p)
		s = s.Resume(inputs[i])
	}
	got, err := s.Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v", got)
	}
	if strings.Join(prompts, ",") != "x,y" {
		t.Errorf("prompts %v", prompts)
	}
}

func TestEachStopsAtFirstFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	s := Each([]int{1, 2, 3}, func(_ int, n int) Step[int] {
		calls++
		if n == 2 {
			return Fail[int](boom)
		}
		return Done(n)
	})
	if _, err := s.Result(); !errors.Is(err, boom) {
		t.Errorf("got %v", err)
	}
	if calls != 2 {
		t.Errorf("f called %d times after a failure", calls)
	}
}

func TestDeferIsTrampolined(t *testing.T) {
	var count func(n int) Step[int]
	count = func(n int) Step[int] {
		if n == 0 {
			return Done(0)
		}
		return Defer(func() Step[int] { return count(n - 1) })
	}
	got, err := Run(context.Background(), &Driver{}, count(50000))
	if err != nil || got != 0 {
		t.Errorf("got %d, %v", got, err)
	}
}

func TestIterationLimit(t *testing.T) {
	var spin func() Step[int]
	spin = func() Step[int] { return Defer(spin) }
	_, err := Run(context.Background(), &Driver{MaxYields: 100}, spin())
	if !diagnostics.IsCode(err, diagnostics.ErrIterationLimit) {
		t.Errorf("got %v", err)
	}
}

func TestAwaitResetsYieldCount(t *testing.T) {
	var loop func(n int) Step[int]
	loop = func(n int) Step[int] {
		if n == 0 {
			return Done(1)
		}
		return Defer(func() Step[int] {
			return Defer(func() Step[int] {
				return Await("more? ", func(string) Step[int] { return loop(n - 1) })
			})
		})
	}
	lines := make([]string, 10)
	_, err := Run(context.Background(), &Driver{Host: &Script{Lines: lines}, MaxYields: 3}, loop(10))
	if err != nil {
		t.Errorf("yield count must reset at every Await: %v", err)
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	host := HostFunc(func(context.Context, string) (string, error) {
		cancel()
		return "1", nil
	})
	s := Then(readInt("a? "), func(a int) Step[int] { return readInt("b? ") })
	if _, err := Run(ctx, &Driver{Host: host}, s); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestResumeIterationLimit(t *testing.T) {
	var spin func() Step[int]
	spin = func() Step[int] { return Defer(spin) }
	s := Await("x? ", func(string) Step[int] { return spin() })

	got := s.ResumeWithin("in", 100)
	if !got.Finished() {
		t.Fatalf("runaway computation did not stop")
	}
	if _, err := got.Result(); !diagnostics.IsCode(err, diagnostics.ErrIterationLimit) {
		t.Errorf("got %v", err)
	}
	if _, err := s.Resume("in").Result(); !diagnostics.IsCode(err, diagnostics.ErrIterationLimit) {
		t.Errorf("default bound: got %v", err)
	}
}

func TestResumeWithinLimit(t *testing.T) {
	var count func(n int) Step[int]
	count = func(n int) Step[int] {
		if n == 0 {
			return Done(7)
		}
		return Defer(func() Step[int] { return count(n - 1) })
	}
	s := Await("x? ", func(string) Step[int] { return count(100) })
	if v, err := s.ResumeWithin("in", 100).Result(); err != nil || v != 7 {
		t.Errorf("got %d, %v", v, err)
	}
}

func TestMissingInput(t *testing.T) {
	tests := []struct {
		name   string
		driver *Driver
	}{
		{"no host", &Driver{}},
		{"script exhausted", &Driver{Host: &Script{}}},
		{"reader at EOF", &Driver{Host: Reader(strings.NewReader(""), nil)}},
	}
	for _, tt := range tests {
		if _, err := Run(context.Background(), tt.driver, readInt("x? ")); !diagnostics.IsCode(err, diagnostics.ErrNoInput) {
			t.Errorf("%s: got %v", tt.name, err)
		}
	}
}

func TestReaderHost(t *testing.T) {
	var out strings.Builder
	host := Reader(strings.NewReader("5\n"), &out)
	got, err := Run(context.Background(), &Driver{Host: host}, readInt("n? "))
	if err != nil || got != 5 {
		t.Errorf("got %d, %v", got, err)
	}
	if out.String() != "n? " {
		t.Errorf("prompt written as %q", out.String())
	}
}
