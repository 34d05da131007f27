package notify

import "sync"

// Recorder keeps notifications in memory.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	logins    int
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// ToLogin makes a Recorder usable as a Navigator too.
func (r *Recorder) ToLogin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins++
}

func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *Recorder) LoginRedirects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logins
}
