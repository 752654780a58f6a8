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
	"bufio"
	"context"
	"io"
)

// TTransport is the opaque byte-stream collaborator this package
// drives: something that can be written to and flushed, and read from
// exactly N bytes at a time. Framing, buffering, and negotiation all
// live below this interface and are out of scope for this package.
type TTransport interface {
	io.ReadWriteCloser

	Open() error
	IsOpen() bool
	Flush(ctx context.Context) error
}

// TRichTransport is the byte/string-oriented surface the compact
// protocol actually writes through: single-byte reads/writes without
// the overhead of a []byte{b} slice allocation per call, and a
// string-aware write that can skip a copy into []byte for transports
// that support it directly.
type TRichTransport interface {
	io.Reader
	io.Writer
	io.ByteReader
	io.ByteWriter
	stringWriter
	Flush(ctx context.Context) error
}

type stringWriter interface {
	WriteString(s string) (n int, err error)
}

// NewTRichTransport adapts a plain TTransport into a TRichTransport
// by layering buffered byte/string access on top of it. Compact
// protocol instances constructed over a transport that already
// implements TRichTransport (TMemoryBuffer, for instance) skip this
// wrapper entirely.
func NewTRichTransport(t TTransport) TRichTransport {
	return &richTransport{
		TTransport: t,
		bufr:       bufio.NewReader(t),
	}
}

type richTransport struct {
	TTransport
	bufr *bufio.Reader
}

func (r *richTransport) Read(p []byte) (int, error) {
	return r.bufr.Read(p)
}

func (r *richTransport) ReadByte() (byte, error) {
	return r.bufr.ReadByte()
}

func (r *richTransport) WriteByte(c byte) error {
	_, err := r.TTransport.Write([]byte{c})
	return err
}

func (r *richTransport) WriteString(s string) (int, error) {
	return r.TTransport.Write([]byte(s))
}

// safeReadBytes reads exactly n bytes, refusing to blindly allocate an
// attacker-controlled buffer up front: it grows in bounded chunks so a
// bogus huge length fails on the first short read instead of causing
// an out-of-memory allocation before a single byte is validated.
func safeReadBytes(n int32, r io.Reader) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	const chunk = 4096
	buf := make([]byte, 0, minInt32(n, chunk))
	remaining := n
	for remaining > 0 {
		step := remaining
		if step > chunk {
			step = chunk
		}
		start := len(buf)
		buf = append(buf, make([]byte, step)...)
		if _, err := io.ReadFull(r, buf[start:]); err != nil {
			return nil, err
		}
		remaining -= step
	}
	return buf, nil
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
