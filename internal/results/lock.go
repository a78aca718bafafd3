package results

import "sync"

// Locker hands out one mutex per file path so concurrent workers serialize
// read-merge-write cycles on the same result file. The zero value is ready
// to use.
type Locker struct {
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

// Lock acquires the mutex of path and returns its release function.
func (l *Locker) Lock(path string) func() {
	l.mu.Lock()
	if l.paths == nil {
		l.paths = make(map[string]*sync.Mutex)
	}
	m, ok := l.paths[path]
	if !ok {
		m = &sync.Mutex{}
		l.paths[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MergeInto locks path and merges t into it.
func (l *Locker) MergeInto(path string, t *Table) (*Table, error) {
	unlock := l.Lock(path)
	defer unlock()
	return MergeInto(path, t)
}
