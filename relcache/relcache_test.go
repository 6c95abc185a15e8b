package relcache

import (
	"errors"
	"strconv"
	"testing"
)

type fakeExecutor struct {
	calls int
	raw   string
	err   error
}

func (f *fakeExecutor) ExecuteScalarQuery(query string) (string, error) {
	f.calls++
	return f.raw, f.err
}

func TestSearch_CachesAfterFirstCall(t *testing.T) {
	exec := &fakeExecutor{raw: "42"}
	c := New[int]("test", 0, "SELECT something()", func(raw string) (int, error) {
		return strconv.Atoi(raw)
	}, nil)

	v1, err := c.Search(exec, "k")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := c.Search(exec, "k")
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 42 || v2 != 42 {
		t.Errorf("got v1=%d v2=%d", v1, v2)
	}
	if exec.calls != 1 {
		t.Errorf("executor called %d times, want 1", exec.calls)
	}
}

func TestSearch_DifferentKeysBothQuery(t *testing.T) {
	exec := &fakeExecutor{raw: "7"}
	c := New[int]("test", 0, "SELECT x()", func(raw string) (int, error) {
		return strconv.Atoi(raw)
	}, nil)

	if _, err := c.Search(exec, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Search(exec, "b"); err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Errorf("executor called %d times, want 2", exec.calls)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestSearch_RegisterErrorPropagates(t *testing.T) {
	exec := &fakeExecutor{raw: "not-a-number"}
	c := New[int]("test", 0, "SELECT x()", func(raw string) (int, error) {
		return strconv.Atoi(raw)
	}, nil)

	_, err := c.Search(exec, "k")
	if err == nil {
		t.Fatal("expected register error")
	}
}

func TestSearch_QueryErrorPropagates(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection reset")}
	c := New[int]("test", 0, "SELECT x()", func(raw string) (int, error) {
		return strconv.Atoi(raw)
	}, nil)

	_, err := c.Search(exec, "k")
	if err == nil {
		t.Fatal("expected query error")
	}
}

func TestCache_EvictsOverSize(t *testing.T) {
	evicted := make([]string, 0)
	exec := &fakeExecutor{raw: "1"}
	c := New[int]("test", 2, "SELECT x()", func(raw string) (int, error) {
		return strconv.Atoi(raw)
	}, func(v int) {
		evicted = append(evicted, strconv.Itoa(v))
	})

	c.Search(exec, "a")
	c.Search(exec, "b")
	c.Search(exec, "c")

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", c.Len())
	}
}
