package traction

import "github.com/sasha-s/go-deadlock"

// Supervisor names worlds and counts their crashes for the whole process.
type Supervisor struct {
	mu      deadlock.Mutex
	nextID  int
	crashes map[string]int
}

// DefaultSupervisor is used by worlds created without one.
var DefaultSupervisor = NewSupervisor()

func NewSupervisor() *Supervisor {
	return &Supervisor{crashes: make(map[string]int)}
}

// NextWorldID returns 0, 1, 2... in creation order.
func (s *Supervisor) NextWorldID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id
}

// RecordCrash counts one more crash of the world and returns its crash count.
func (s *Supervisor) RecordCrash(world string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.crashes[world]++
	return s.crashes[world]
}

func (s *Supervisor) Crashes(world string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.crashes[world]
}

// Total is the number of crashes over every world.
func (s *Supervisor) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.crashes {
		total += n
	}
	return total
}

// Reset forgets the crash counts and restarts the naming.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = 0
	clear(s.crashes)
}
