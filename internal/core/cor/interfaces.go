// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks the
// label indexing pipeline is assembled from: a Command is one step, a Chain
// runs steps in order, and a Context carries data and errors between them.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state of a single workflow execution.
type Context interface {
	// SetContext sets the Go context carrying cancellation and the active span.
	SetContext(context context.Context)

	// GetContext retrieves the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns the recorded errors keyed by command name.
	GetErrors() map[string]error

	// Err joins all recorded errors in the order they were added, or returns
	// nil when the execution succeeded.
	Err() error

	// Get retrieves a value, or nil when key is absent.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any error was recorded.
	HasErrors() bool

	// Close releases resources acquired during the execution.
	Close()
}

// Executable is anything with an Execute step.
type Executable interface {
	Execute(context Context)
}

// Command is one atomic, testable unit of work.
type Command interface {
	Executable

	// GetName returns the unique name used for spans, metrics and errors.
	GetName() string

	// GetInputParam returns the key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the key the command writes its output to.
	GetOutputParam() string

	// IsExecutable checks the preconditions of Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps running after a
	// command recorded an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}

// Get returns the value stored under key as a T. The boolean is false when the
// key is absent or holds another type.
func Get[T any](context Context, key string) (T, bool) {
	v, ok := context.Get(key).(T)
	return v, ok
}
