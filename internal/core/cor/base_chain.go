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

// This file defines BaseChain, the default Chain.
//
// Logic Flow:
//  1. A span named `<chain>_execute` wraps the whole run.
//  2. Each command runs inside its own child span. Before it starts, the chain
//     stops if an earlier command recorded an error (unless continueOnFailure).
//  3. A command whose IsExecutable is false is skipped and recorded as an error.
//  4. After each command the value under CtxOut is moved to CtxIn, making one
//     command's output the next command's input.
//  5. When the run succeeds, the final value is placed under the chain's own
//     output key, so a chain nested in another chain pipes like any command.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty chain named name.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable only requires a Go context; the first command checks the input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the commands in order, piping outputs to inputs.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}

		commandCtx, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		errorsBefore := len(chCtx.GetErrors())
		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandCtx)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			chCtx.AddError(command.GetName(), fmt.Errorf("command %s is not executable: missing input %q", command.GetName(), command.GetInputParam()))
		}

		if len(chCtx.GetErrors()) > errorsBefore {
			err := chCtx.Err()
			commandSpan.RecordError(err)
			commandSpan.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(commandCtx, "command failed", "chain", c.GetName(), "command", command.GetName(), "error", err)
		} else {
			commandSpan.SetStatus(codes.Ok, "")
		}
		commandSpan.End()

		out := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if out != nil {
			chCtx.Add(CtxIn, out)
		}
		chCtx.Remove(CtxOut)
	}

	if chCtx.HasErrors() {
		c.ErrorCounter.Add(outerCtx, 1)
		chainSpan.SetStatus(codes.Error, "chain failed")
		return
	}

	if last := chCtx.Get(CtxIn); last != nil {
		chCtx.Remove(CtxIn)
		chCtx.Add(c.GetOutputParam(), last)
	}
	c.SuccessCounter.Add(outerCtx, 1)
	chainSpan.SetStatus(codes.Ok, "")
}
