/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements. See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership. The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License. You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package thrift

import (
	"bytes"
	"context"
)

// TMemoryBuffer is a TTransport backed by an in-memory buffer: no
// syscalls, no framing, just bytes.Buffer underneath. It is what the
// tests in this package and cmd/compactdump use to drive the compact
// protocol without a real socket or file.
type TMemoryBuffer struct {
	*bytes.Buffer
	size int
}

func NewTMemoryBuffer() *TMemoryBuffer {
	return &TMemoryBuffer{Buffer: &bytes.Buffer{}}
}

func NewTMemoryBufferLen(size int) *TMemoryBuffer {
	buf := make([]byte, 0, size)
	return &TMemoryBuffer{Buffer: bytes.NewBuffer(buf), size: size}
}

func NewTMemoryBufferWithData(data []byte) *TMemoryBuffer {
	return &TMemoryBuffer{Buffer: bytes.NewBuffer(data)}
}

func (p *TMemoryBuffer) IsOpen() bool { return true }

func (p *TMemoryBuffer) Open() error { return nil }

func (p *TMemoryBuffer) Close() error {
	p.Buffer.Reset()
	return nil
}

func (p *TMemoryBuffer) Flush(ctx context.Context) error { return nil }

func (p *TMemoryBuffer) WriteString(s string) (n int, err error) {
	return p.Buffer.WriteString(s)
}

func (p *TMemoryBuffer) RemainingBytes() uint64 {
	return uint64(p.Buffer.Len())
}

var _ TTransport = (*TMemoryBuffer)(nil)
var _ TRichTransport = (*TMemoryBuffer)(nil)
