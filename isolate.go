package isojs

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/isojs/isojs/internal/refs"
)

// terminatedSentinel is the interrupt payload used by TerminateExecution so
// the error translator can tell a forced stop apart from a thrown exception.
const terminatedSentinel = "ExecutionTerminated: script execution has been terminated"

// engineVersion identifies the wrapped engine generation. goja does not
// report a version of its own, so the bridge pins the ECMAScript level it targets.
const engineVersion = "goja-es2020"

var (
	initOnce sync.Once

	// microtaskProg is entered to let the engine drain its pending promise
	// reaction jobs. Programs are immutable and shared across runtimes.
	microtaskProg *goja.Program

	// classProg realizes the classifier used by the Value predicate family.
	classProg *goja.Program

	// contexts is the process-wide registry letting native callbacks recover
	// the invoking Context from the integer identity stamped at creation.
	contexts = refs.NewTable[*Context]()

	strictMode atomic.Bool
)

// Init performs process-wide engine initialization. It is idempotent and is
// called implicitly by NewIsolate; the process cannot be re-initialized.
func Init() {
	initOnce.Do(func() {
		microtaskProg = goja.MustCompile("isojs://microtasks", "undefined", false)
		classProg = goja.MustCompile("isojs://classof",
			"(function (v) { return Object.prototype.toString.call(v); })", true)
	})
}

// SetFlags applies engine flags from a space-separated string. Recognized
// flags: --use_strict and --nouse_strict. Unknown flags are ignored, matching
// the engine's own tolerance for unsupported options.
func SetFlags(flags string) {
	for _, f := range strings.Fields(flags) {
		switch f {
		case "--use_strict", "--use-strict":
			strictMode.Store(true)
		case "--nouse_strict", "--nouse-strict":
			strictMode.Store(false)
		}
	}
}

// Version returns the identifier of the underlying engine.
func Version() string {
	return engineVersion
}

// Isolate is one engine instance with its own heap. All contexts, values and
// templates created from it belong to it and must be driven from a single
// goroutine at a time; TerminateExecution and IsExecutionTerminating are the
// only methods safe to call concurrently.
type Isolate struct {
	// mu guards bookkeeping state only (context list, callback table). It is
	// never held while script executes, so host callbacks may re-enter the
	// bridge freely.
	mu sync.Mutex

	internal *Context      // default context for values created with no context in scope
	live     map[int]*Context
	cbs      *refs.Table[FunctionCallback]

	terminating atomic.Bool
	disposed    bool
	detached    atomic.Int64 // contexts closed over the isolate's lifetime
}

// HeapStatistics reports engine heap figures. The engine shares the host
// process heap, so sizes derive from the Go runtime allocator; the context
// counts are maintained by the bridge itself.
type HeapStatistics struct {
	TotalHeapSize            uint64
	TotalHeapSizeExecutable  uint64
	TotalPhysicalSize        uint64
	TotalAvailableSize       uint64
	UsedHeapSize             uint64
	HeapSizeLimit            uint64
	MallocedMemory           uint64
	ExternalMemory           uint64
	PeakMallocedMemory       uint64
	NumberOfNativeContexts   uint64
	NumberOfDetachedContexts uint64
}

// NewIsolate creates a new engine instance with its own default internal
// context. The caller owns the isolate and must Dispose it.
func NewIsolate() *Isolate {
	Init()
	iso := &Isolate{
		live: make(map[int]*Context),
		cbs:  refs.NewTable[FunctionCallback](),
	}
	// Slot 0 is reserved by convention for debugger tooling; the default
	// context occupies the instance-local slot instead.
	iso.internal = newContext(iso, nil)
	iso.internal.internal = true
	return iso
}

// Dispose releases the isolate: the default internal context is closed
// first, which frees every value tracked against it, then all remaining
// live contexts are closed in turn. Idempotent.
func (iso *Isolate) Dispose() {
	if iso == nil {
		return
	}
	iso.mu.Lock()
	if iso.disposed {
		iso.mu.Unlock()
		return
	}
	iso.disposed = true
	remaining := make([]*Context, 0, len(iso.live))
	for _, c := range iso.live {
		remaining = append(remaining, c)
	}
	iso.mu.Unlock()

	iso.internal.Close()
	for _, c := range remaining {
		c.Close()
	}
}

// Disposed reports whether Dispose has been called.
func (iso *Isolate) Disposed() bool {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	return iso.disposed
}

// TerminateExecution forcefully stops any script currently running in the
// isolate. Safe to call from any goroutine. The run unwinds with a
// termination error; the isolate itself stays usable, though embedders are
// advised to dispose and recreate after a forced stop.
func (iso *Isolate) TerminateExecution() {
	iso.terminating.Store(true)
	for _, vm := range iso.runtimes() {
		vm.Interrupt(terminatedSentinel)
	}
}

// IsExecutionTerminating reports whether a termination request is pending.
// It stays true after the interrupted run unwinds until a subsequent
// RunScript resets it.
func (iso *Isolate) IsExecutionTerminating() bool {
	return iso.terminating.Load()
}

// resetTermination clears a previous termination request so the next run is
// not interrupted immediately on entry.
func (iso *Isolate) resetTermination() {
	if !iso.terminating.CompareAndSwap(true, false) {
		return
	}
	for _, vm := range iso.runtimes() {
		vm.ClearInterrupt()
	}
}

// runtimes snapshots the engine runtimes of every open context. The
// snapshot is taken under the bookkeeping lock so a concurrent Close cannot
// hand back a torn-down runtime.
func (iso *Isolate) runtimes() []*goja.Runtime {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	out := make([]*goja.Runtime, 0, len(iso.live)+1)
	if iso.internal != nil && !iso.internal.closed {
		out = append(out, iso.internal.vm)
	}
	for _, c := range iso.live {
		if !c.closed && c.vm != nil {
			out = append(out, c.vm)
		}
	}
	return out
}

// PerformMicrotaskCheckpoint drains queued promise continuations across the
// isolate's contexts. Without it, continuations attached through the promise
// adapter never fire.
func (iso *Isolate) PerformMicrotaskCheckpoint() {
	for _, vm := range iso.runtimes() {
		// Entering and leaving the runtime flushes its job queue.
		_, _ = vm.RunProgram(microtaskProg)
	}
}

// GetHeapStatistics samples heap figures for the isolate.
func (iso *Isolate) GetHeapStatistics() HeapStatistics {
	if iso == nil {
		return HeapStatistics{}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	limit := uint64(0)
	if l := debug.SetMemoryLimit(-1); l > 0 {
		limit = uint64(l)
	}
	avail := uint64(0)
	if limit > ms.HeapAlloc {
		avail = limit - ms.HeapAlloc
	}

	iso.mu.Lock()
	native := uint64(len(iso.live))
	if iso.internal != nil && !iso.internal.closed {
		native++
	}
	iso.mu.Unlock()

	return HeapStatistics{
		TotalHeapSize:            ms.HeapSys,
		TotalHeapSizeExecutable:  0,
		TotalPhysicalSize:        ms.HeapSys - ms.HeapReleased,
		TotalAvailableSize:       avail,
		UsedHeapSize:             ms.HeapAlloc,
		HeapSizeLimit:            limit,
		MallocedMemory:           ms.Alloc,
		ExternalMemory:           0,
		PeakMallocedMemory:       ms.TotalAlloc,
		NumberOfNativeContexts:   native,
		NumberOfDetachedContexts: uint64(iso.detached.Load()),
	}
}

// registerContext adds a freshly created context to the isolate's live set.
func (iso *Isolate) registerContext(c *Context) {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	iso.live[c.ref] = c
}

// unregisterContext removes a closed context and records it as detached.
func (iso *Isolate) unregisterContext(c *Context) {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	delete(iso.live, c.ref)
	iso.detached.Add(1)
}
