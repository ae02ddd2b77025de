// Package sched implements the multi-level queue scheduler: MAX_PRIO
// bounded FIFO ready queues, a per-level slot budget, and the stateful
// get/put/add operations that drive them, plus a non-MLQ single-queue
// fallback. Grounded on sched.c and queue.c; the C original's
// module-static curr_prio/curr_slot and queue_lock become explicit
// fields on Scheduler, guarded by a sync.Mutex field, and the
// original enqueue's silent drop-on-full becomes a returned,
// logged error.
package sched

import (
	"log/slog"
	"sync"

	"github.com/kics223w1/ossim/internal/status"
)

// MaxPriority is the number of MLQ priority levels (0..MaxPriority-1).
const MaxPriority = 140

// MaxQueueSize bounds each ready queue, mirroring MAX_QUEUE_SIZE.
const MaxQueueSize = 256

// Process is the minimal view of a PCB the scheduler needs: an
// identity and, in MLQ mode, a fixed priority. Owner lets a caller
// that embeds Process inside a larger PCB type recover that PCB from
// whatever Get/Put hands back, without the scheduler needing to know
// that type (which would otherwise be an import cycle: the kernel
// package depends on sched, not the reverse).
type Process struct {
	PID      int
	Priority int // 0..MaxPriority-1, only meaningful in MLQ mode
	Owner    any
}

// boundedQueue is a fixed-capacity FIFO of *Process, mirroring
// struct queue_t's array-backed implementation.
type boundedQueue struct {
	procs []*Process
}

func (q *boundedQueue) empty() bool { return len(q.procs) == 0 }

// enqueue appends proc, returning status.ErrQueueFull (logged by the
// caller) instead of silently dropping it once the queue is full —
// the original enqueue() is a silent no-op here, which this port
// deliberately does not replicate.
func (q *boundedQueue) enqueue(p *Process) error {
	if len(q.procs) >= MaxQueueSize {
		return status.ErrQueueFull
	}
	q.procs = append(q.procs, p)
	return nil
}

func (q *boundedQueue) dequeue() *Process {
	if q.empty() {
		return nil
	}
	p := q.procs[0]
	q.procs = q.procs[1:]
	return p
}

// purge removes the process with the given pid, if present.
func (q *boundedQueue) purge(pid int) {
	for i, p := range q.procs {
		if p.PID == pid {
			q.procs = append(q.procs[:i], q.procs[i+1:]...)
			return
		}
	}
}

// Scheduler holds all ready-queue state. MLQ mode and the non-MLQ
// single-queue fallback coexist as separate fields; NewMLQ/NewSingle
// pick which one Get/Put/Add actually touch.
type Scheduler struct {
	mu  sync.Mutex
	log *slog.Logger
	mlq bool

	// MLQ mode.
	mlqReady   [MaxPriority]boundedQueue
	slot       [MaxPriority]int
	currPrio   int
	currSlot   int
	runningMLQ boundedQueue

	// Non-MLQ fallback mode: processes whose time slice expired land in
	// run, new admissions land in ready; Get drains run into ready once
	// ready is empty, per the spec's fallback semantics.
	ready boundedQueue
	run   boundedQueue
}

// NewMLQ builds a priority-based scheduler with slot[i] = MaxPriority-i.
func NewMLQ(log *slog.Logger) *Scheduler {
	s := &Scheduler{mlq: true, log: log}
	for i := 0; i < MaxPriority; i++ {
		s.slot[i] = MaxPriority - i
	}
	return s
}

// NewSingle builds the non-MLQ fallback scheduler.
func NewSingle(log *slog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Empty reports whether every queue (all priority levels in MLQ mode,
// or the single ready queue otherwise) is empty.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mlq {
		for i := range s.mlqReady {
			if !s.mlqReady[i].empty() {
				return false
			}
		}
		return true
	}
	return s.ready.empty()
}

// Get returns the next process to run, or nil if none is ready. In MLQ
// mode it implements get_mlq_proc's stateful priority scan: each
// priority level is served its slot[i] quota before the scan advances,
// wrapping back to priority 0 after the last level.
func (s *Scheduler) Get() *Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mlq {
		return s.getMLQLocked()
	}
	return s.getSingleLocked()
}

func (s *Scheduler) getMLQLocked() *Process {
	for {
		if s.currSlot == 0 {
			found := false
			for i := 0; i < MaxPriority; i++ {
				check := (s.currPrio + i) % MaxPriority
				if !s.mlqReady[check].empty() {
					s.currPrio = check
					s.currSlot = s.slot[check]
					found = true
					break
				}
			}
			if !found {
				return nil
			}
		}

		proc := s.mlqReady[s.currPrio].dequeue()
		if proc == nil {
			s.currSlot = 0
			continue
		}

		s.currSlot--
		if err := s.runningMLQ.enqueue(proc); err != nil {
			s.log.Warn("scheduler running-list full", slog.Int("pid", proc.PID))
		}
		if s.currSlot == 0 {
			s.currPrio = (s.currPrio + 1) % MaxPriority
		}
		return proc
	}
}

func (s *Scheduler) getSingleLocked() *Process {
	if s.ready.empty() {
		for {
			p := s.run.dequeue()
			if p == nil {
				break
			}
			if err := s.ready.enqueue(p); err != nil {
				s.log.Warn("ready queue full draining run queue", slog.Int("pid", p.PID))
			}
		}
	}
	return s.ready.dequeue()
}

// Put requeues proc after its time slice expires: it is purged from
// the running list (best-effort) and re-enqueued to its ready queue.
func (s *Scheduler) Put(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mlq {
		s.runningMLQ.purge(p.PID)
		if err := s.mlqReady[p.Priority].enqueue(p); err != nil {
			s.log.Warn("mlq ready queue full", slog.Int("pid", p.PID), slog.Int("prio", p.Priority))
		}
		return
	}
	if err := s.run.enqueue(p); err != nil {
		s.log.Warn("run queue full", slog.Int("pid", p.PID))
	}
}

// Add admits a newly loaded process to its ready queue. Unlike Put, it
// does not purge the running list, mirroring add_mlq_proc.
func (s *Scheduler) Add(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mlq {
		if err := s.mlqReady[p.Priority].enqueue(p); err != nil {
			s.log.Warn("mlq ready queue full", slog.Int("pid", p.PID), slog.Int("prio", p.Priority))
		}
		return
	}
	if err := s.ready.enqueue(p); err != nil {
		s.log.Warn("ready queue full", slog.Int("pid", p.PID))
	}
}
