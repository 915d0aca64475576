/*
Package isojs is an embedding bridge for an in-process JavaScript engine.

# Overview

The bridge lets a host program drive isolated script environments: create
execution contexts, inject and invoke values, marshal calls in both
directions, and receive structured errors instead of engine panics. It wraps
the goja engine, which is treated as an external collaborator; isojs adds the
handle-lifetime and call-marshaling layer on top of it:

  - Isolate: one engine instance with its own heap and a default internal
    Context for values created outside any explicit context
  - Context: one global scope, owning a handle registry of every Value
    created while it was the active scope
  - Value: a host-visible handle to one engine-resident value, valid until
    its owning Context is closed
  - ObjectTemplate / FunctionTemplate: reusable blueprints instantiated into
    contexts on demand
  - FunctionCallback: host functions invoked from script through an integer
    registration id, never a function pointer

# Lifetime Model

The engine's collector has no visibility into host-side reachability, so the
bridge never relies on finalizers. Every Value created under a Context is
appended to that Context's registry; Context.Close releases the whole
registry in registration order. The registry is append-only while the
context lives. A Value must not be used after its Context is closed; doing
so is a caller bug and trips a guard panic rather than touching stale state.

# Concurrency

An Isolate and everything it owns must be driven from one goroutine at a
time; the bridge performs no internal locking around script execution.
TerminateExecution and IsExecutionTerminating are the only calls that are
safe from other goroutines, which is how a watchdog cancels a runaway
script. Separate Isolates are fully independent.

Promise continuations attached through the bridge do not run on their own:
the host must call Isolate.PerformMicrotaskCheckpoint to drain queued
microtasks.

# Usage Example

	iso := isojs.NewIsolate()
	defer iso.Dispose()

	ctx := isojs.NewContext(iso)
	defer ctx.Close()

	val, err := ctx.RunScript("1 + 2", "add.js")
	if err != nil {
		var jsErr *isojs.JSError
		errors.As(err, &jsErr)
		log.Fatal(jsErr.Message, jsErr.Location)
	}
	fmt.Println(val.Int32()) // 3

# Integration

The bridge integrates with:
  - pool for bounded reuse of isolates across jobs
  - metrics for heap statistics exported as Prometheus gauges
  - cmd/isojs for a script runner and REPL
*/
package isojs
