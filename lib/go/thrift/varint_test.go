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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVarint32Boundaries checks the one/two-byte varint boundary at 127/128
// and the all-ones 32-bit edge, which exercises every byte of buffer.
func TestVarint32Boundaries(t *testing.T) {
	cases := []struct {
		name string
		n    int32
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one byte max", 127, []byte{0x7F}},
		{"two byte min", 128, []byte{0x80, 0x01}},
		{"all ones", -1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, buf := newPair()
			_, err := p.writeVarint32(c.n)
			require.NoError(t, err)
			assert.Equal(t, c.want, buf.Bytes())

			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.readVarint32()
			require.NoError(t, err)
			assert.Equal(t, c.n, got)
		})
	}
}

func TestVarint64Boundaries(t *testing.T) {
	cases := []int64{0, 1, 127, 128, 1<<35 - 1, -1, -(1 << 40)}
	for _, n := range cases {
		p, buf := newPair()
		_, err := p.writeVarint64(n)
		require.NoError(t, err)

		reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
		got, err := reader.readVarint64()
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestZigzagBijection(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 2, -2, 1<<31 - 1, -(1 << 31)} {
		assert.Equal(t, n, zigzagToInt32(int32ToZigzag(n)))
	}
	for _, n := range []int64{0, 1, -1, 2, -2, 1<<63 - 1, -(1 << 63)} {
		assert.Equal(t, n, zigzagToInt64(int64ToZigzag(n)))
	}
}

// TestZigzagSmallMagnitudeIsCompact checks the whole point of zigzag: small
// negative numbers stay one byte on the wire instead of sign-extending to
// the full width, the way a naive two's-complement varint would.
func TestZigzagSmallMagnitudeIsCompact(t *testing.T) {
	p, buf := newPair()
	_, err := p.writeVarint32(int32ToZigzag(-1))
	require.NoError(t, err)
	assert.Len(t, buf.Bytes(), 1)

	p2, buf2 := newPair()
	_, err = p2.writeVarint64(int64ToZigzag(-1))
	require.NoError(t, err)
	assert.Len(t, buf2.Bytes(), 1)
}
