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
	"fmt"
)

const (
	VERSION_MASK = 0xffff0000
	VERSION_1    = 0x80010000
)

// TProtocol is the full push/pull surface a wire codec in this family
// implements. TCompactProtocol is the only implementation in this
// package; the verbose binary and JSON variants are out of scope.
type TProtocol interface {
	WriteMessageBegin(ctx context.Context, name string, typeId TMessageType, seqid int32) error
	WriteMessageEnd(ctx context.Context) error
	WriteStructBegin(ctx context.Context, name string) error
	WriteStructEnd(ctx context.Context) error
	WriteFieldBegin(ctx context.Context, name string, typeId TType, id int16) error
	WriteFieldEnd(ctx context.Context) error
	WriteFieldStop(ctx context.Context) error
	WriteMapBegin(ctx context.Context, keyType TType, valueType TType, size int) error
	WriteMapEnd(ctx context.Context) error
	WriteListBegin(ctx context.Context, elemType TType, size int) error
	WriteListEnd(ctx context.Context) error
	WriteSetBegin(ctx context.Context, elemType TType, size int) error
	WriteSetEnd(ctx context.Context) error
	WriteBool(ctx context.Context, value bool) error
	WriteByte(ctx context.Context, value int8) error
	WriteI16(ctx context.Context, value int16) error
	WriteI32(ctx context.Context, value int32) error
	WriteI64(ctx context.Context, value int64) error
	WriteDouble(ctx context.Context, value float64) error
	WriteString(ctx context.Context, value string) error
	WriteBinary(ctx context.Context, value []byte) error
	WriteUUID(ctx context.Context, value Tuuid) error

	ReadMessageBegin(ctx context.Context) (name string, typeId TMessageType, seqid int32, err error)
	ReadMessageEnd(ctx context.Context) error
	ReadStructBegin(ctx context.Context) (name string, err error)
	ReadStructEnd(ctx context.Context) error
	ReadFieldBegin(ctx context.Context) (name string, typeId TType, id int16, err error)
	ReadFieldEnd(ctx context.Context) error
	ReadMapBegin(ctx context.Context) (keyType TType, valueType TType, size int, err error)
	ReadMapEnd(ctx context.Context) error
	ReadListBegin(ctx context.Context) (elemType TType, size int, err error)
	ReadListEnd(ctx context.Context) error
	ReadSetBegin(ctx context.Context) (elemType TType, size int, err error)
	ReadSetEnd(ctx context.Context) error
	ReadBool(ctx context.Context) (value bool, err error)
	ReadByte(ctx context.Context) (value int8, err error)
	ReadI16(ctx context.Context) (value int16, err error)
	ReadI32(ctx context.Context) (value int32, err error)
	ReadI64(ctx context.Context) (value int64, err error)
	ReadDouble(ctx context.Context) (value float64, err error)
	ReadString(ctx context.Context) (value string, err error)
	ReadBinary(ctx context.Context) (value []byte, err error)
	ReadUUID(ctx context.Context) (value Tuuid, err error)

	Skip(ctx context.Context, fieldType TType) (err error)
	Flush(ctx context.Context) (err error)

	Transport() TTransport
}

// TProtocolFactory returns a new TProtocol bound to a given transport.
// A factory holds no per-instance state: every GetProtocol call is
// independent.
type TProtocolFactory interface {
	GetProtocol(trans TTransport) TProtocol
}

const defaultRecursionDepth = 64

// SkipDefaultDepth walks and discards one value of fieldType from p
// without the caller needing to know its shape — used by tooling (like
// cmd/compactdump) that wants to skip fields it doesn't recognize
// while still leaving the stream positioned correctly for the next
// field. It bounds recursion the same way the real runtime does, since
// a malicious or corrupt stream can otherwise nest containers/structs
// without limit.
func SkipDefaultDepth(ctx context.Context, p TProtocol, fieldType TType) error {
	return skip(ctx, p, fieldType, defaultRecursionDepth)
}

func skip(ctx context.Context, p TProtocol, fieldType TType, maxDepth int) error {
	if maxDepth <= 0 {
		return NewTProtocolExceptionWithType(DEPTH_LIMIT, fmt.Errorf("depth limit exceeded"))
	}

	switch fieldType {
	case STOP:
		return nil
	case BOOL:
		_, err := p.ReadBool(ctx)
		return err
	case BYTE:
		_, err := p.ReadByte(ctx)
		return err
	case I16:
		_, err := p.ReadI16(ctx)
		return err
	case I32:
		_, err := p.ReadI32(ctx)
		return err
	case I64:
		_, err := p.ReadI64(ctx)
		return err
	case DOUBLE:
		_, err := p.ReadDouble(ctx)
		return err
	case STRING:
		_, err := p.ReadString(ctx)
		return err
	case UUID:
		_, err := p.ReadUUID(ctx)
		return err
	case STRUCT:
		if _, err := p.ReadStructBegin(ctx); err != nil {
			return err
		}
		for {
			_, elemType, _, err := p.ReadFieldBegin(ctx)
			if err != nil {
				return err
			}
			if elemType == STOP {
				break
			}
			if err := skip(ctx, p, elemType, maxDepth-1); err != nil {
				return err
			}
			if err := p.ReadFieldEnd(ctx); err != nil {
				return err
			}
		}
		return p.ReadStructEnd(ctx)
	case LIST:
		elemType, size, err := p.ReadListBegin(ctx)
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := skip(ctx, p, elemType, maxDepth-1); err != nil {
				return err
			}
		}
		return p.ReadListEnd(ctx)
	case SET:
		elemType, size, err := p.ReadSetBegin(ctx)
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := skip(ctx, p, elemType, maxDepth-1); err != nil {
				return err
			}
		}
		return p.ReadSetEnd(ctx)
	case MAP:
		keyType, valueType, size, err := p.ReadMapBegin(ctx)
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			if err := skip(ctx, p, keyType, maxDepth-1); err != nil {
				return err
			}
			if err := skip(ctx, p, valueType, maxDepth-1); err != nil {
				return err
			}
		}
		return p.ReadMapEnd(ctx)
	default:
		return NewTProtocolExceptionWithType(INVALID_DATA, fmt.Errorf("unknown data type %d", fieldType))
	}
}
