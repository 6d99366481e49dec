package core_test

import (
	"context"
	"fmt"

	"github.com/janlis/go-green-scheduler/core"
)

func ExampleScheduler() {
	// Preemption disabled: the rotation below is fully deterministic.
	s := core.NewScheduler(&core.Config{PreemptInterval: 0})
	defer s.Stop()

	// InitTask hands the processor to the new task right away, so hold the
	// workers at a gate until both exist.
	started := false
	worker := func(name string) core.EntryFunc {
		return func(ctx context.Context) {
			sc := core.GetCurrentScheduler(ctx)
			for !started {
				sc.Yield()
			}
			for i := 0; i < 2; i++ {
				fmt.Printf("%s turn %d\n", name, i)
				sc.Yield()
			}
		}
	}

	var tasks []*core.Task
	for _, name := range []string{"left", "right"} {
		t, err := s.NewTask()
		if err != nil {
			fmt.Println("create:", err)
			return
		}
		if err := s.InitTask(t, worker(name)); err != nil {
			fmt.Println("init:", err)
			return
		}
		tasks = append(tasks, t)
	}
	started = true
	for _, t := range tasks {
		s.Join(t)
	}

	// Output:
	// left turn 0
	// right turn 0
	// left turn 1
	// right turn 1
}

func ExampleMutex_TryLock() {
	s := core.NewScheduler(&core.Config{PreemptInterval: 0})
	defer s.Stop()

	m := s.NewMutex()
	fmt.Println("first:", m.TryLock())
	fmt.Println("second:", m.TryLock())
	m.Unlock()
	fmt.Println("after unlock:", m.TryLock())

	// Output:
	// first: true
	// second: false
	// after unlock: true
}
