// Copyright (C) 2026 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"io"
	"sync"
)

// Handler is the handler of log messages.
type Handler interface {
	Handle(*Message)
	Close()
}

type handler struct {
	handle func(*Message)
	close  func()
}

func (h handler) Handle(m *Message) { h.handle(m) }
func (h handler) Close() {
	if h.close != nil {
		h.close()
	}
}

// NewHandler returns a Handler that calls handle for each message and close
// when the handler is closed.
func NewHandler(handle func(*Message), close func()) Handler {
	return handler{handle, close}
}

type handlerKeyTy string

const handlerKey handlerKeyTy = "log.handlerKey"

// PutHandler returns a new context with the Handler assigned to h.
func PutHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey, h)
}

// GetHandler returns the Handler assigned to ctx.
func GetHandler(ctx context.Context) Handler {
	out, _ := ctx.Value(handlerKey).(Handler)
	return out
}

// Writer returns a Handler that prints each message to w using the style s.
// Writes are serialized so the handler can be shared between goroutines.
func Writer(s Style, w io.Writer) Handler {
	mu := sync.Mutex{}
	return handler{
		handle: func(m *Message) {
			mu.Lock()
			defer mu.Unlock()
			io.WriteString(w, s.Print(m))
			io.WriteString(w, "\n")
		},
	}
}

// Broadcast forwards all messages to all supplied handlers.
// Nil handlers are ignored.
func Broadcast(handlers ...Handler) Handler {
	list := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			list = append(list, h)
		}
	}
	return handler{
		handle: func(m *Message) {
			for _, h := range list {
				h.Handle(m)
			}
		},
		close: func() {
			for _, h := range list {
				h.Close()
			}
		},
	}
}

// Channel is a log handler that passes log messages to another Handler through
// a chan, so the receiving handler only ever runs on one goroutine.
// Close flushes the pending messages and closes to.
func Channel(to Handler, size int) Handler {
	c := make(chan *Message, size)
	done := make(chan struct{})
	go func() {
		defer func() {
			to.Close()
			close(done)
		}()
		for m := range c {
			if m == nil {
				return
			}
			to.Handle(m)
		}
	}()
	return handler{
		handle: func(m *Message) {
			if m == nil {
				return
			}
			select {
			case c <- m:
			case <-done: // Handler closed. Message dropped on floor.
			}
		},
		close: func() {
			select {
			case <-done:
			case c <- nil:
				<-done
			}
		},
	}
}
