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

package cor

import (
	"context"
	"errors"
	"fmt"
)

// BaseContext is the default Context: a property bag plus an ordered error
// log. It is not safe for concurrent use; one execution owns one context.
type BaseContext struct {
	data       map[string]interface{}
	errors     map[string]error
	errorOrder []string
	context    context.Context
}

// NewBaseContext returns an empty context bound to context.Background().
func NewBaseContext() Context {
	return &BaseContext{
		data:    make(map[string]interface{}),
		errors:  make(map[string]error),
		context: context.Background(),
	}
}

// NewContextWithInput returns a context bound to ctx whose CtxIn holds input.
func NewContextWithInput(ctx context.Context, input interface{}) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	c.Add(CtxIn, input)
	return c
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close is a no-op; the label pipeline holds no per-execution resources.
func (c *BaseContext) Close() {}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddError records err under key. A second error for the same key replaces the
// first but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	if _, ok := c.errors[key]; !ok {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) Err() error {
	if len(c.errorOrder) == 0 {
		return nil
	}
	if len(c.errorOrder) == 1 {
		return c.errors[c.errorOrder[0]]
	}
	errs := make([]error, 0, len(c.errorOrder))
	for _, key := range c.errorOrder {
		errs = append(errs, fmt.Errorf("%s: %w", key, c.errors[key]))
	}
	return errors.Join(errs...)
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
