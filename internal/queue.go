package internal

// taskQueue holds the work of the last and post phases. Tasks run once, in
// the order they were enqueued; a task may enqueue more work on the same
// queue and it runs in the same pass.
type taskQueue struct {
	tasks []func()
}

func (q *taskQueue) Enqueue(fn func()) {
	q.tasks = append(q.tasks, fn)
}

func (q *taskQueue) Len() int {
	return len(q.tasks)
}

func (q *taskQueue) Run() {
	for i := 0; i < len(q.tasks); i++ {
		q.tasks[i]()
	}

	clear(q.tasks)
	q.tasks = q.tasks[:0]
}
