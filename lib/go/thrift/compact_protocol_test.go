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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair() (*TCompactProtocol, *TMemoryBuffer) {
	buf := NewTMemoryBuffer()
	return NewTCompactProtocolConf(buf, &TConfiguration{}), buf
}

func TestEmptyMessage(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteMessageBegin(ctx, "ping", CALL, 0))
	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))
	require.NoError(t, p.WriteMessageEnd(ctx))

	assert.Equal(t, []byte{0x82, 0x21, 0x00, 0x04, 0x70, 0x69, 0x6E, 0x67, 0x00}, buf.Bytes())
}

func TestSingleI32Field(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", I32, 1))
	require.NoError(t, p.WriteI32(ctx, 150))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	assert.Equal(t, []byte{0x15, 0xAC, 0x02, 0x00}, buf.Bytes())
}

func TestBooleanFieldInline(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", BOOL, 2))
	require.NoError(t, p.WriteBool(ctx, true))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	assert.Equal(t, []byte{0x21, 0x00}, buf.Bytes())
}

func TestListOfI32(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", LIST, 1))
	require.NoError(t, p.WriteListBegin(ctx, I32, 3))
	for _, v := range []int32{1, -1, 2} {
		require.NoError(t, p.WriteI32(ctx, v))
	}
	require.NoError(t, p.WriteListEnd(ctx))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	assert.Equal(t, []byte{0x19, 0x35, 0x02, 0x01, 0x04, 0x00}, buf.Bytes())
}

func TestEmptyMapField(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", MAP, 1))
	require.NoError(t, p.WriteMapBegin(ctx, STRING, STRING, 0))
	require.NoError(t, p.WriteMapEnd(ctx))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	assert.Equal(t, []byte{0x1B, 0x00, 0x00}, buf.Bytes())
}

func TestFieldIdJumpUsesLongForm(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", I16, 20))
	require.NoError(t, p.WriteI16(ctx, 5))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	assert.Equal(t, []byte{0x04, 0x28, 0x0A}, buf.Bytes())
}

func TestShortFormBoundaryAtDeltaFifteen(t *testing.T) {
	ctx := context.Background()

	// fid == last_fid + 15 uses short form: one header byte.
	p, buf := newPair()
	require.NoError(t, p.WriteStructBegin(ctx, ""))
	require.NoError(t, p.WriteFieldBegin(ctx, "", BYTE, 15))
	require.NoError(t, p.WriteByte(ctx, 7))
	assert.Equal(t, []byte{0xF3, 0x07}, buf.Bytes())

	// fid == last_fid + 16 uses long form: type byte + zigzag-varint id.
	p2, buf2 := newPair()
	require.NoError(t, p2.WriteStructBegin(ctx, ""))
	require.NoError(t, p2.WriteFieldBegin(ctx, "", BYTE, 16))
	require.NoError(t, p2.WriteByte(ctx, 7))
	assert.Equal(t, []byte{0x03, 0x20, 0x07}, buf2.Bytes())
}

func TestNestedStructRestoresLastFieldId(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, "outer"))
	require.NoError(t, p.WriteFieldBegin(ctx, "", I32, 5))
	require.NoError(t, p.WriteI32(ctx, 1))
	require.NoError(t, p.WriteFieldEnd(ctx))

	require.NoError(t, p.WriteFieldBegin(ctx, "", STRUCT, 6))
	require.NoError(t, p.WriteStructBegin(ctx, "inner"))
	require.NoError(t, p.WriteFieldBegin(ctx, "", I32, 1))
	require.NoError(t, p.WriteI32(ctx, 2))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))
	require.NoError(t, p.WriteFieldEnd(ctx))

	// Resumes at last_fid=6 (the outer struct's STRUCT field), not 1 from
	// the inner one.
	require.NoError(t, p.WriteFieldBegin(ctx, "", I32, 7))
	require.NoError(t, p.WriteI32(ctx, 3))
	require.NoError(t, p.WriteFieldEnd(ctx))

	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	// Decode it back and check the field ids come out in the same order.
	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
	_, err := reader.ReadStructBegin(ctx)
	require.NoError(t, err)

	_, _, fid, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, fid)
	v, err := reader.ReadI32(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	require.NoError(t, reader.ReadFieldEnd(ctx))

	_, fieldType, fid, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.Equal(t, STRUCT, fieldType)
	assert.EqualValues(t, 6, fid)

	_, err = reader.ReadStructBegin(ctx)
	require.NoError(t, err)
	_, _, innerFid, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, innerFid)
	innerV, err := reader.ReadI32(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, innerV)
	require.NoError(t, reader.ReadFieldEnd(ctx))
	_, _, stop, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stop)
	require.NoError(t, reader.ReadStructEnd(ctx))
	require.NoError(t, reader.ReadFieldEnd(ctx))

	_, _, fid, err = reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, fid)
}

func TestRoundTripScalars(t *testing.T) {
	ctx := context.Background()

	t.Run("bool", func(t *testing.T) {
		for _, v := range []bool{true, false} {
			// A bare BOOL is only legal as a container element (or a
			// pending field), so round-trip it inside a one-element list.
			p, buf := newPair()
			require.NoError(t, p.WriteListBegin(ctx, BOOL, 1))
			require.NoError(t, p.WriteBool(ctx, v))
			require.NoError(t, p.WriteListEnd(ctx))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			_, _, err := reader.ReadListBegin(ctx)
			require.NoError(t, err)
			got, err := reader.ReadBool(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("byte", func(t *testing.T) {
		for _, v := range []int8{0, 1, -1, 127, -128} {
			p, buf := newPair()
			require.NoError(t, p.WriteByte(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadByte(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("i16", func(t *testing.T) {
		for _, v := range []int16{0, 1, -1, 32767, -32768} {
			p, buf := newPair()
			require.NoError(t, p.WriteI16(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadI16(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("i32", func(t *testing.T) {
		for _, v := range []int32{0, 1, -1, 1<<31 - 1, -(1 << 31)} {
			p, buf := newPair()
			require.NoError(t, p.WriteI32(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadI32(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("i64", func(t *testing.T) {
		for _, v := range []int64{0, 1, -1, 1<<63 - 1, -(1 << 63)} {
			p, buf := newPair()
			require.NoError(t, p.WriteI64(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadI64(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("double", func(t *testing.T) {
		for _, v := range []float64{0, 1.5, -1.5, 3.14159265358979} {
			p, buf := newPair()
			require.NoError(t, p.WriteDouble(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadDouble(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("string", func(t *testing.T) {
		for _, v := range []string{"", "a", "hello, thrift", string(make([]byte, 200))} {
			p, buf := newPair()
			require.NoError(t, p.WriteString(ctx, v))
			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			got, err := reader.ReadString(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})
}

func TestRoundTripListSetMap(t *testing.T) {
	ctx := context.Background()

	for _, size := range []int{0, 14, 15, 16, 300} {
		t.Run("list", func(t *testing.T) {
			p, buf := newPair()
			require.NoError(t, p.WriteListBegin(ctx, I32, size))
			for i := 0; i < size; i++ {
				require.NoError(t, p.WriteI32(ctx, int32(i)))
			}
			require.NoError(t, p.WriteListEnd(ctx))

			reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
			elemType, got, err := reader.ReadListBegin(ctx)
			require.NoError(t, err)
			assert.Equal(t, I32, elemType)
			assert.Equal(t, size, got)
			for i := 0; i < size; i++ {
				v, err := reader.ReadI32(ctx)
				require.NoError(t, err)
				assert.EqualValues(t, i, v)
			}
			require.NoError(t, reader.ReadListEnd(ctx))
		})
	}

	t.Run("empty map is one byte", func(t *testing.T) {
		p, buf := newPair()
		require.NoError(t, p.WriteMapBegin(ctx, STRING, I32, 0))
		assert.Equal(t, []byte{0x00}, buf.Bytes())

		reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
		_, _, size, err := reader.ReadMapBegin(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, size)
	})

	t.Run("non-empty map", func(t *testing.T) {
		p, buf := newPair()
		require.NoError(t, p.WriteMapBegin(ctx, STRING, I32, 2))
		require.NoError(t, p.WriteString(ctx, "a"))
		require.NoError(t, p.WriteI32(ctx, 1))
		require.NoError(t, p.WriteString(ctx, "b"))
		require.NoError(t, p.WriteI32(ctx, 2))
		require.NoError(t, p.WriteMapEnd(ctx))

		reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
		kt, vt, size, err := reader.ReadMapBegin(ctx)
		require.NoError(t, err)
		assert.Equal(t, STRING, kt)
		assert.Equal(t, I32, vt)
		assert.Equal(t, 2, size)
	})
}

func TestRoundTripStruct(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteStructBegin(ctx, "Point"))
	require.NoError(t, p.WriteFieldBegin(ctx, "x", I32, 1))
	require.NoError(t, p.WriteI32(ctx, 10))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldBegin(ctx, "y", I32, 2))
	require.NoError(t, p.WriteI32(ctx, -20))
	require.NoError(t, p.WriteFieldEnd(ctx))
	require.NoError(t, p.WriteFieldStop(ctx))
	require.NoError(t, p.WriteStructEnd(ctx))

	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
	_, err := reader.ReadStructBegin(ctx)
	require.NoError(t, err)

	_, _, fid, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fid)
	x, err := reader.ReadI32(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, x)
	require.NoError(t, reader.ReadFieldEnd(ctx))

	_, _, fid, err = reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fid)
	y, err := reader.ReadI32(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, -20, y)
	require.NoError(t, reader.ReadFieldEnd(ctx))

	_, fieldType, _, err := reader.ReadFieldBegin(ctx)
	require.NoError(t, err)
	assert.Equal(t, STOP, fieldType)
	require.NoError(t, reader.ReadStructEnd(ctx))
}

func TestBadVersionRejected(t *testing.T) {
	ctx := context.Background()
	trans := NewTMemoryBufferWithData([]byte{0x82, 0x02 /* version=2 */, 0x00, 0x00})
	p := NewTCompactProtocolConf(trans, &TConfiguration{})
	_, _, _, err := p.ReadMessageBegin(ctx)
	require.Error(t, err)
	var pe TProtocolException
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, BAD_VERSION, pe.TypeId())
}

func TestBadProtocolIdRejected(t *testing.T) {
	ctx := context.Background()
	trans := NewTMemoryBufferWithData([]byte{0x00, 0x21, 0x00, 0x00})
	p := NewTCompactProtocolConf(trans, &TConfiguration{})
	_, _, _, err := p.ReadMessageBegin(ctx)
	require.Error(t, err)
	var pe TProtocolException
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, BAD_VERSION, pe.TypeId())
}

func TestOversizeListRejected(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()
	// Claim a huge list of DOUBLEs (min size 8 bytes each) so the
	// element-count * min-size product blows past the configured max.
	require.NoError(t, p.writeByteDirect(0xF7)) // long-form header, etype=DOUBLE
	_, err := p.writeVarint32(1 << 20)
	require.NoError(t, err)

	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{MaxMessageSize: 100})
	_, _, err = reader.ReadListBegin(ctx)
	require.Error(t, err)
	var pe TProtocolException
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, SIZE_LIMIT, pe.TypeId())
}

func TestUUIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()
	id, err := NewTuuid()
	require.NoError(t, err)

	require.NoError(t, p.WriteUUID(ctx, id))
	assert.Len(t, buf.Bytes(), 16)

	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
	got, err := reader.ReadUUID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestWriteStructEndWithoutBeginFails(t *testing.T) {
	ctx := context.Background()
	p, _ := newPair()
	err := p.WriteStructEnd(ctx)
	require.Error(t, err)
}

func TestWriteBoolOutsideFieldOrContainerFails(t *testing.T) {
	ctx := context.Background()
	p, _ := newPair()

	// No WriteFieldBegin(BOOL, ...) pending, and no list/set/map open:
	// this is the ill-formed-input case spec error-taxonomy item 5
	// names explicitly, and must fail fast rather than silently writing
	// a stray byte.
	err := p.WriteBool(ctx, true)
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestWriteBoolInsideContainerSucceeds(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()

	require.NoError(t, p.WriteListBegin(ctx, BOOL, 2))
	require.NoError(t, p.WriteBool(ctx, true))
	require.NoError(t, p.WriteBool(ctx, false))
	require.NoError(t, p.WriteListEnd(ctx))

	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
	_, size, err := reader.ReadListBegin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	v1, err := reader.ReadBool(ctx)
	require.NoError(t, err)
	assert.True(t, v1)
	v2, err := reader.ReadBool(ctx)
	require.NoError(t, err)
	assert.False(t, v2)
	require.NoError(t, reader.ReadListEnd(ctx))
}

func TestReadBoolOutsideFieldOrContainerFails(t *testing.T) {
	ctx := context.Background()
	p, buf := newPair()
	require.NoError(t, p.writeByteDirect(byte(COMPACT_BOOLEAN_TRUE)))

	reader := NewTCompactProtocolConf(NewTMemoryBufferWithData(buf.Bytes()), &TConfiguration{})
	_, err := reader.ReadBool(ctx)
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}
