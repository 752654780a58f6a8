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

// Package thrift implements the Compact Protocol wire codec: the
// state machine and byte-level encoder/decoder that turn a sequence of
// message/struct/field/value calls into a bit-packed byte stream, and
// back. The IDL front-end, transport framing, and RPC dispatch that
// normally sit on either side of this package are someone else's
// problem; a TCompactProtocol only knows how to talk to a TTransport.
package thrift

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	COMPACT_PROTOCOL_ID       = 0x82
	COMPACT_VERSION           = 1
	COMPACT_VERSION_MASK      = 0x1f
	COMPACT_TYPE_MASK         = 0x0E0
	COMPACT_TYPE_BITS         = 0x07
	COMPACT_TYPE_SHIFT_AMOUNT = 5
)

// tCompactType is the 4-bit wire code for a value's type, as distinct
// from the abstract TType the caller deals in. BOOL folds to one of
// two codes depending on where it appears (see WriteBool).
type tCompactType byte

const (
	COMPACT_BOOLEAN_TRUE  tCompactType = 0x01
	COMPACT_BOOLEAN_FALSE tCompactType = 0x02
	COMPACT_BYTE          tCompactType = 0x03
	COMPACT_I16           tCompactType = 0x04
	COMPACT_I32           tCompactType = 0x05
	COMPACT_I64           tCompactType = 0x06
	COMPACT_DOUBLE        tCompactType = 0x07
	COMPACT_BINARY        tCompactType = 0x08
	COMPACT_LIST          tCompactType = 0x09
	COMPACT_SET           tCompactType = 0x0A
	COMPACT_MAP           tCompactType = 0x0B
	COMPACT_STRUCT        tCompactType = 0x0C
	COMPACT_UUID          tCompactType = 0x0D
)

var ttypeToCompactType map[TType]tCompactType

func init() {
	ttypeToCompactType = map[TType]tCompactType{
		STOP:   tCompactType(STOP),
		BOOL:   COMPACT_BOOLEAN_TRUE,
		BYTE:   COMPACT_BYTE,
		I16:    COMPACT_I16,
		I32:    COMPACT_I32,
		I64:    COMPACT_I64,
		DOUBLE: COMPACT_DOUBLE,
		STRING: COMPACT_BINARY,
		LIST:   COMPACT_LIST,
		SET:    COMPACT_SET,
		MAP:    COMPACT_MAP,
		STRUCT: COMPACT_STRUCT,
		UUID:   COMPACT_UUID,
	}
}

// TCompactProtocolFactory hands out TCompactProtocol instances bound
// to a caller-supplied transport. It holds no per-instance state of
// its own beyond the TConfiguration every instance should inherit.
type TCompactProtocolFactory struct {
	cfg *TConfiguration
}

// NewTCompactProtocolFactory returns a factory with the legacy
// zero-propagation configuration.
//
// Deprecated: use NewTCompactProtocolFactoryConf.
func NewTCompactProtocolFactory() *TCompactProtocolFactory {
	return NewTCompactProtocolFactoryConf(&TConfiguration{noPropagation: true})
}

func NewTCompactProtocolFactoryConf(conf *TConfiguration) *TCompactProtocolFactory {
	return &TCompactProtocolFactory{cfg: conf}
}

func (p *TCompactProtocolFactory) GetProtocol(trans TTransport) TProtocol {
	return NewTCompactProtocolConf(trans, p.cfg)
}

func (p *TCompactProtocolFactory) SetTConfiguration(conf *TConfiguration) {
	p.cfg = conf
}

// TCompactProtocol is the codec described by §3 of the spec: one
// last-field-id, one pending-boolean latch per direction, an open
// container count, and a stack of saved last-field-id frames for nested
// structs. There is no explicit state value; the state is implied by
// these fields.
type TCompactProtocol struct {
	trans         TRichTransport
	origTransport TTransport

	cfg *TConfiguration

	// lastField holds one saved last-field-id per currently open
	// struct (the frame stack of §4.4); lastFieldId is the live value
	// for the innermost open struct.
	lastField   []int
	lastFieldId int

	// A BOOL field's header is withheld until the value arrives, so it
	// can be folded into the same byte. These three fields model
	// BOOL_WRITE: booleanFieldPending is true iff the codec is
	// currently in that state.
	booleanFieldName    string
	booleanFieldId      int16
	booleanFieldPending bool

	// Symmetric read-side latch: ReadFieldBegin for a BOOL field reads
	// the value out of the header immediately and stashes it here for
	// the ReadBool call that is expected to follow.
	boolValue          bool
	boolValueIsNotNull bool

	// containerDepth counts currently open list/set/map values (write
	// or read side, never both at once per instance). WriteBool/ReadBool
	// consult it to reject a BOOL value that is neither a pending field
	// nor a container element — the one EncodingError case spec item 5
	// calls out by name.
	containerDepth int

	buffer [64]byte
}

// NewTCompactProtocol wraps trans with the legacy zero-propagation
// configuration.
//
// Deprecated: use NewTCompactProtocolConf.
func NewTCompactProtocol(trans TTransport) *TCompactProtocol {
	return NewTCompactProtocolConf(trans, &TConfiguration{noPropagation: true})
}

func NewTCompactProtocolConf(trans TTransport, conf *TConfiguration) *TCompactProtocol {
	PropagateTConfiguration(trans, conf)
	p := &TCompactProtocol{
		origTransport: trans,
		cfg:           conf,
	}
	if et, ok := trans.(TRichTransport); ok {
		p.trans = et
	} else {
		p.trans = NewTRichTransport(trans)
	}
	return p
}

// ---------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------

// WriteMessageBegin emits the fixed message header: protocol id,
// version+type byte, seqid varint, then the message name as a compact
// string. The Compact Protocol stamps its own version so a future
// incompatible revision can still be told apart on the wire.
func (p *TCompactProtocol) WriteMessageBegin(ctx context.Context, name string, typeId TMessageType, seqid int32) error {
	if err := p.writeByteDirect(COMPACT_PROTOCOL_ID); err != nil {
		return NewTProtocolException(err)
	}
	versionAndType := byte(COMPACT_VERSION&COMPACT_VERSION_MASK) | ((byte(typeId) << COMPACT_TYPE_SHIFT_AMOUNT) & COMPACT_TYPE_MASK)
	if err := p.writeByteDirect(versionAndType); err != nil {
		return NewTProtocolException(err)
	}
	if _, err := p.writeVarint32(seqid); err != nil {
		return NewTProtocolException(err)
	}
	return p.WriteString(ctx, name)
}

func (p *TCompactProtocol) WriteMessageEnd(ctx context.Context) error { return nil }

// WriteStructBegin pushes the current (state is implicit; only
// lastFieldId is saved) field-id origin onto the frame stack and
// resets it to zero for the struct now being entered. Nothing reaches
// the wire here — struct boundaries are implicit in the field stream.
func (p *TCompactProtocol) WriteStructBegin(ctx context.Context, name string) error {
	p.lastField = append(p.lastField, p.lastFieldId)
	p.lastFieldId = 0
	return nil
}

// WriteStructEnd pops the frame pushed by the matching
// WriteStructBegin, restoring the enclosing struct's field-id origin.
func (p *TCompactProtocol) WriteStructEnd(ctx context.Context) error {
	if len(p.lastField) == 0 {
		return NewTProtocolExceptionWithType(INVALID_DATA, errors.New("WriteStructEnd called without matching WriteStructBegin call before"))
	}
	p.lastFieldId = p.lastField[len(p.lastField)-1]
	p.lastField = p.lastField[:len(p.lastField)-1]
	return nil
}

// WriteFieldBegin defers BOOL fields: the header is withheld until the
// value shows up on WriteBool, so it can be folded into a single byte.
// Every other type writes its header immediately.
func (p *TCompactProtocol) WriteFieldBegin(ctx context.Context, name string, typeId TType, id int16) error {
	if typeId == BOOL {
		p.booleanFieldName, p.booleanFieldId, p.booleanFieldPending = name, id, true
		return nil
	}
	_, err := p.writeFieldBeginInternal(ctx, typeId, id, 0xFF)
	return NewTProtocolException(err)
}

// writeFieldBeginInternal does the actual header write, with an
// optional type override: WriteBool uses it to substitute the
// TRUE/FALSE code for the field's declared BOOL type.
func (p *TCompactProtocol) writeFieldBeginInternal(ctx context.Context, typeId TType, id int16, typeOverride byte) (int, error) {
	typeToWrite := byte(p.getCompactType(typeId))
	if typeOverride != 0xFF {
		typeToWrite = typeOverride
	}

	fieldId := int(id)
	written := 0
	if fieldId > p.lastFieldId && fieldId-p.lastFieldId <= 15 {
		if err := p.writeByteDirect(byte((fieldId-p.lastFieldId)<<4) | typeToWrite); err != nil {
			return 0, err
		}
	} else {
		if err := p.writeByteDirect(typeToWrite); err != nil {
			return 0, err
		}
		if err := p.WriteI16(ctx, id); err != nil {
			return 0, err
		}
		written = 1 + 2
	}

	p.lastFieldId = fieldId
	return written, nil
}

func (p *TCompactProtocol) WriteFieldEnd(ctx context.Context) error { return nil }

func (p *TCompactProtocol) WriteFieldStop(ctx context.Context) error {
	return NewTProtocolException(p.writeByteDirect(byte(STOP)))
}

func (p *TCompactProtocol) WriteMapBegin(ctx context.Context, keyType TType, valueType TType, size int) error {
	p.containerDepth++
	if size == 0 {
		return NewTProtocolException(p.writeByteDirect(0))
	}
	if _, err := p.writeVarint32(int32(size)); err != nil {
		return NewTProtocolException(err)
	}
	kv := byte(p.getCompactType(keyType))<<4 | byte(p.getCompactType(valueType))
	return NewTProtocolException(p.writeByteDirect(kv))
}

func (p *TCompactProtocol) WriteMapEnd(ctx context.Context) error {
	p.containerDepth--
	return nil
}

func (p *TCompactProtocol) WriteListBegin(ctx context.Context, elemType TType, size int) error {
	p.containerDepth++
	_, err := p.writeCollectionBegin(elemType, size)
	return NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteListEnd(ctx context.Context) error {
	p.containerDepth--
	return nil
}

func (p *TCompactProtocol) WriteSetBegin(ctx context.Context, elemType TType, size int) error {
	p.containerDepth++
	_, err := p.writeCollectionBegin(elemType, size)
	return NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteSetEnd(ctx context.Context) error {
	p.containerDepth--
	return nil
}

// WriteBool is the one value writer with two completely different
// behaviors depending on state: inside a pending BOOL field it folds
// the value into the withheld header; inside an open container it's a
// plain one-byte value. Called in neither context it is ill-formed
// caller input (spec error-taxonomy item 5) rather than a wire-format
// problem, so it's reported as an EncodingError, not a
// TProtocolException.
func (p *TCompactProtocol) WriteBool(ctx context.Context, value bool) error {
	v := byte(COMPACT_BOOLEAN_FALSE)
	if value {
		v = byte(COMPACT_BOOLEAN_TRUE)
	}
	if p.booleanFieldPending {
		_, err := p.writeFieldBeginInternal(ctx, BOOL, p.booleanFieldId, v)
		p.booleanFieldPending = false
		return NewTProtocolException(err)
	}
	if p.containerDepth == 0 {
		return NewEncodingError("WriteBool called outside a pending BOOL field and outside an open container")
	}
	return NewTProtocolException(p.writeByteDirect(v))
}

func (p *TCompactProtocol) WriteByte(ctx context.Context, value int8) error {
	return NewTProtocolException(p.writeByteDirect(byte(value)))
}

func (p *TCompactProtocol) WriteI16(ctx context.Context, value int16) error {
	_, err := p.writeVarint32(int32ToZigzag(int32(value)))
	return NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteI32(ctx context.Context, value int32) error {
	_, err := p.writeVarint32(int32ToZigzag(value))
	return NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteI64(ctx context.Context, value int64) error {
	_, err := p.writeVarint64(int64ToZigzag(value))
	return NewTProtocolException(err)
}

// WriteDouble writes 8 bytes, big-endian IEEE-754 binary64. Apart from
// UUID, this is the one multi-byte value on the wire that is not a
// varint.
func (p *TCompactProtocol) WriteDouble(ctx context.Context, value float64) error {
	buf := p.buffer[0:8]
	binary.BigEndian.PutUint64(buf, math.Float64bits(value))
	_, err := p.trans.Write(buf)
	return NewTProtocolException(err)
}

// WriteString writes a varint length followed by the raw UTF-8 bytes
// of value. Encoding validity is the caller's contract, not this
// package's job.
func (p *TCompactProtocol) WriteString(ctx context.Context, value string) error {
	if _, err := p.writeVarint32(int32(len(value))); err != nil {
		return NewTProtocolException(err)
	}
	if len(value) == 0 {
		return nil
	}
	_, err := p.trans.WriteString(value)
	return NewTProtocolException(err)
}

func (p *TCompactProtocol) WriteBinary(ctx context.Context, bin []byte) error {
	if _, err := p.writeVarint32(int32(len(bin))); err != nil {
		return NewTProtocolException(err)
	}
	if len(bin) == 0 {
		return nil
	}
	_, err := p.trans.Write(bin)
	return NewTProtocolException(err)
}

// WriteUUID writes 16 raw bytes with no length prefix — the one fixed
// -width non-DOUBLE value on the wire.
func (p *TCompactProtocol) WriteUUID(ctx context.Context, value Tuuid) error {
	_, err := p.trans.Write(value[:])
	return NewTProtocolException(err)
}

// ---------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------

// ReadMessageBegin mirrors WriteMessageBegin. A live context deadline
// earns a single retry loop around I/O timeouts on the very first
// byte, since the caller may simply be waiting on a slow peer rather
// than looking at a dead connection.
func (p *TCompactProtocol) ReadMessageBegin(ctx context.Context) (name string, typeId TMessageType, seqId int32, err error) {
	var protocolId byte
	_, deadlineSet := ctx.Deadline()
	for {
		protocolId, err = p.readByteDirect()
		if deadlineSet && isTimeoutError(err) && ctx.Err() == nil {
			continue
		}
		break
	}
	if err != nil {
		return
	}

	if protocolId != COMPACT_PROTOCOL_ID {
		e := fmt.Errorf("expected protocol id %02x but got %02x", COMPACT_PROTOCOL_ID, protocolId)
		return "", typeId, seqId, NewTProtocolExceptionWithType(BAD_VERSION, e)
	}

	versionAndType, err := p.readByteDirect()
	if err != nil {
		return
	}
	version := versionAndType & COMPACT_VERSION_MASK
	typeId = TMessageType((versionAndType >> COMPACT_TYPE_SHIFT_AMOUNT) & COMPACT_TYPE_BITS)
	if version != COMPACT_VERSION {
		err = NewTProtocolExceptionWithType(BAD_VERSION, fmt.Errorf("expected version %02x but got %02x", COMPACT_VERSION, version))
		return
	}

	seqId, e := p.readVarint32()
	if e != nil {
		err = NewTProtocolException(e)
		return
	}
	name, err = p.ReadString(ctx)
	return
}

func (p *TCompactProtocol) ReadMessageEnd(ctx context.Context) error { return nil }

func (p *TCompactProtocol) ReadStructBegin(ctx context.Context) (name string, err error) {
	p.lastField = append(p.lastField, p.lastFieldId)
	p.lastFieldId = 0
	return
}

func (p *TCompactProtocol) ReadStructEnd(ctx context.Context) error {
	if len(p.lastField) == 0 {
		return NewTProtocolExceptionWithType(INVALID_DATA, errors.New("ReadStructEnd called without matching ReadStructBegin call before"))
	}
	p.lastFieldId = p.lastField[len(p.lastField)-1]
	p.lastField = p.lastField[:len(p.lastField)-1]
	return nil
}

// ReadFieldBegin reads one field header: a STOP byte ends the struct;
// otherwise the high nibble is either a field-id delta or, if zero, a
// signal that the absolute id follows as a zigzag varint int16. A BOOL
// field's value rides along in the low nibble and is stashed for the
// ReadBool call expected next.
func (p *TCompactProtocol) ReadFieldBegin(ctx context.Context) (name string, typeId TType, id int16, err error) {
	t, err := p.readByteDirect()
	if err != nil {
		return
	}

	if (t & 0x0f) == byte(STOP) {
		return "", STOP, 0, nil
	}

	modifier := int16((t & 0xf0) >> 4)
	if modifier == 0 {
		id, err = p.ReadI16(ctx)
		if err != nil {
			return
		}
	} else {
		id = int16(p.lastFieldId) + modifier
	}

	typeId, e := p.getTType(tCompactType(t & 0x0f))
	if e != nil {
		err = NewTProtocolException(e)
		return
	}

	if isBoolType(t) {
		p.boolValue = byte(t)&0x0f == byte(COMPACT_BOOLEAN_TRUE)
		p.boolValueIsNotNull = true
	}

	p.lastFieldId = int(id)
	return
}

func (p *TCompactProtocol) ReadFieldEnd(ctx context.Context) error { return nil }

// ReadMapBegin reads the size-gated map header of §4.6: a zero-byte
// map has no key/value type codes at all.
func (p *TCompactProtocol) ReadMapBegin(ctx context.Context) (keyType TType, valueType TType, size int, err error) {
	p.containerDepth++
	size32, e := p.readVarint32()
	if e != nil {
		err = NewTProtocolException(e)
		return
	}
	size = int(size32)

	keyAndValueType := byte(STOP)
	if size != 0 {
		keyAndValueType, err = p.readByteDirect()
		if err != nil {
			return
		}
	}
	keyType, _ = p.getTType(tCompactType(keyAndValueType >> 4))
	valueType, _ = p.getTType(tCompactType(keyAndValueType & 0xf))

	minElemSize := p.getMinSerializedSize(keyType) + p.getMinSerializedSize(valueType)
	err = checkSizeForProtocol(size32*minElemSize, p.cfg)
	return
}

func (p *TCompactProtocol) ReadMapEnd(ctx context.Context) error {
	p.containerDepth--
	return nil
}

// ReadListBegin reads the short/long collection header of §4.6: sizes
// 0-14 are packed into the header byte, 15 signals a following varint.
func (p *TCompactProtocol) ReadListBegin(ctx context.Context) (elemType TType, size int, err error) {
	p.containerDepth++
	sizeAndType, err := p.readByteDirect()
	if err != nil {
		return
	}
	size = int((sizeAndType >> 4) & 0x0f)
	if size == 15 {
		size32, e := p.readVarint32()
		if e != nil {
			err = NewTProtocolException(e)
			return
		}
		size = int(size32)
	}

	elemType, e := p.getTType(tCompactType(sizeAndType))
	if e != nil {
		err = NewTProtocolException(e)
		return
	}

	err = checkSizeForProtocol(int32(size)*p.getMinSerializedSize(elemType), p.cfg)
	return
}

func (p *TCompactProtocol) ReadListEnd(ctx context.Context) error {
	p.containerDepth--
	return nil
}

func (p *TCompactProtocol) ReadSetBegin(ctx context.Context) (elemType TType, size int, err error) {
	return p.ReadListBegin(ctx)
}

func (p *TCompactProtocol) ReadSetEnd(ctx context.Context) error {
	return p.ReadListEnd(ctx)
}

// ReadBool consumes the value latched by ReadFieldBegin for a BOOL
// field; for a container element (no latch pending) it reads a fresh
// byte off the wire. Called in neither context, it's the read-side
// mirror of WriteBool's EncodingError case.
func (p *TCompactProtocol) ReadBool(ctx context.Context) (value bool, err error) {
	if p.boolValueIsNotNull {
		p.boolValueIsNotNull = false
		return p.boolValue, nil
	}
	if p.containerDepth == 0 {
		return false, NewEncodingError("ReadBool called outside a pending BOOL field and outside an open container")
	}
	v, err := p.readByteDirect()
	return v == byte(COMPACT_BOOLEAN_TRUE), err
}

func (p *TCompactProtocol) ReadByte(ctx context.Context) (int8, error) {
	v, err := p.readByteDirect()
	if err != nil {
		return 0, NewTProtocolException(err)
	}
	return int8(v), nil
}

func (p *TCompactProtocol) ReadI16(ctx context.Context) (value int16, err error) {
	v, err := p.ReadI32(ctx)
	return int16(v), err
}

func (p *TCompactProtocol) ReadI32(ctx context.Context) (value int32, err error) {
	v, e := p.readVarint32()
	if e != nil {
		return 0, NewTProtocolException(e)
	}
	return zigzagToInt32(v), nil
}

func (p *TCompactProtocol) ReadI64(ctx context.Context) (value int64, err error) {
	v, e := p.readVarint64()
	if e != nil {
		return 0, NewTProtocolException(e)
	}
	return zigzagToInt64(v), nil
}

func (p *TCompactProtocol) ReadDouble(ctx context.Context) (value float64, err error) {
	buf := p.buffer[0:8]
	if _, e := io.ReadFull(p.trans, buf); e != nil {
		return 0.0, NewTProtocolException(e)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
}

// ReadString reads a varint length and the raw bytes that follow,
// avoiding an allocation for the common case of a short read by
// borrowing the codec's scratch buffer.
func (p *TCompactProtocol) ReadString(ctx context.Context) (value string, err error) {
	length, e := p.readVarint32()
	if e != nil {
		return "", NewTProtocolException(e)
	}
	if err = checkSizeForProtocol(length, p.cfg); err != nil {
		return
	}
	if length == 0 {
		return "", nil
	}
	if length < int32(len(p.buffer)) {
		buf := p.buffer[:length]
		read, e := io.ReadFull(p.trans, buf)
		return string(buf[:read]), NewTProtocolException(e)
	}
	buf, e := safeReadBytes(length, p.trans)
	return string(buf), NewTProtocolException(e)
}

func (p *TCompactProtocol) ReadBinary(ctx context.Context) (value []byte, err error) {
	length, e := p.readVarint32()
	if e != nil {
		return nil, NewTProtocolException(e)
	}
	if err = checkSizeForProtocol(length, p.cfg); err != nil {
		return
	}
	if length == 0 {
		return []byte{}, nil
	}
	buf, e := safeReadBytes(length, p.trans)
	return buf, NewTProtocolException(e)
}

func (p *TCompactProtocol) ReadUUID(ctx context.Context) (value Tuuid, err error) {
	buf := p.buffer[0:16]
	if _, e := io.ReadFull(p.trans, buf); e != nil {
		return value, NewTProtocolException(e)
	}
	copy(value[:], buf)
	return value, nil
}

func (p *TCompactProtocol) Flush(ctx context.Context) error {
	return NewTProtocolException(p.trans.Flush(ctx))
}

func (p *TCompactProtocol) Skip(ctx context.Context, fieldType TType) error {
	return SkipDefaultDepth(ctx, p, fieldType)
}

func (p *TCompactProtocol) Transport() TTransport {
	return p.origTransport
}

func (p *TCompactProtocol) SetTConfiguration(conf *TConfiguration) {
	PropagateTConfiguration(p.trans, conf)
	PropagateTConfiguration(p.origTransport, conf)
	p.cfg = conf
}

// ---------------------------------------------------------------------
// Internal writing helpers
// ---------------------------------------------------------------------

// writeCollectionBegin emits the shared list/set header: only the
// element type code differs between the two container kinds.
func (p *TCompactProtocol) writeCollectionBegin(elemType TType, size int) (int, error) {
	if size <= 14 {
		return 1, p.writeByteDirect(byte(int32(size<<4) | int32(p.getCompactType(elemType))))
	}
	if err := p.writeByteDirect(0xf0 | byte(p.getCompactType(elemType))); err != nil {
		return 0, err
	}
	m, err := p.writeVarint32(int32(size))
	return 1 + m, err
}

// writeVarint32 writes n as an unsigned little-endian base-128 varint,
// 1 to 5 bytes.
func (p *TCompactProtocol) writeVarint32(n int32) (int, error) {
	buf := p.buffer[0:5]
	idx := 0
	for {
		if n&^0x7F == 0 {
			buf[idx] = byte(n)
			idx++
			break
		}
		buf[idx] = byte(n&0x7F) | 0x80
		idx++
		n = int32(uint32(n) >> 7)
	}
	return p.trans.Write(buf[0:idx])
}

// writeVarint64 is writeVarint32's 64-bit sibling, up to 10 bytes.
func (p *TCompactProtocol) writeVarint64(n int64) (int, error) {
	buf := p.buffer[0:10]
	idx := 0
	for {
		if n&^0x7F == 0 {
			buf[idx] = byte(n)
			idx++
			break
		}
		buf[idx] = byte(n&0x7F) | 0x80
		idx++
		n = int64(uint64(n) >> 7)
	}
	return p.trans.Write(buf[0:idx])
}

func (p *TCompactProtocol) writeByteDirect(b byte) error {
	return p.trans.WriteByte(b)
}

// ---------------------------------------------------------------------
// Internal reading helpers
// ---------------------------------------------------------------------

func (p *TCompactProtocol) readVarint32() (int32, error) {
	v, err := p.readVarint64()
	return int32(v), err
}

// readVarint64 mirrors writeVarint64. The mask is 0x7f (seven low
// bits) — an older generation of this protocol's source carried a dead
// branch that masked with 0xf7 instead, which would have corrupted
// every byte past the first; that branch never shipped live and is not
// reproduced here.
func (p *TCompactProtocol) readVarint64() (int64, error) {
	shift := uint(0)
	result := int64(0)
	for {
		b, err := p.readByteDirect()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		if b&0x80 != 0x80 {
			break
		}
		shift += 7
	}
	return result, nil
}

func (p *TCompactProtocol) readByteDirect() (byte, error) {
	return p.trans.ReadByte()
}

// ---------------------------------------------------------------------
// ZigZag
// ---------------------------------------------------------------------

func int64ToZigzag(l int64) int64 {
	return (l << 1) ^ (l >> 63)
}

func int32ToZigzag(n int32) int32 {
	return (n << 1) ^ (n >> 31)
}

func zigzagToInt32(n int32) int32 {
	u := uint32(n)
	return int32(u>>1) ^ -(n & 1)
}

func zigzagToInt64(n int64) int64 {
	u := uint64(n)
	return int64(u>>1) ^ -(n & 1)
}

// ---------------------------------------------------------------------
// Type code <-> TType
// ---------------------------------------------------------------------

func isBoolType(b byte) bool {
	lo := b & 0x0f
	return lo == byte(COMPACT_BOOLEAN_TRUE) || lo == byte(COMPACT_BOOLEAN_FALSE)
}

func (p *TCompactProtocol) getTType(t tCompactType) (TType, error) {
	switch byte(t) & 0x0f {
	case byte(STOP):
		return STOP, nil
	case byte(COMPACT_BOOLEAN_FALSE), byte(COMPACT_BOOLEAN_TRUE):
		return BOOL, nil
	case byte(COMPACT_BYTE):
		return BYTE, nil
	case byte(COMPACT_I16):
		return I16, nil
	case byte(COMPACT_I32):
		return I32, nil
	case byte(COMPACT_I64):
		return I64, nil
	case byte(COMPACT_DOUBLE):
		return DOUBLE, nil
	case byte(COMPACT_BINARY):
		return STRING, nil
	case byte(COMPACT_LIST):
		return LIST, nil
	case byte(COMPACT_SET):
		return SET, nil
	case byte(COMPACT_MAP):
		return MAP, nil
	case byte(COMPACT_STRUCT):
		return STRUCT, nil
	case byte(COMPACT_UUID):
		return UUID, nil
	}
	return STOP, fmt.Errorf("don't know what type: %v", t&0x0f)
}

func (p *TCompactProtocol) getCompactType(t TType) tCompactType {
	return ttypeToCompactType[t]
}

// getMinSerializedSize returns the fewest bytes a value of ttype can
// possibly occupy on the wire, used by ReadListBegin/ReadMapBegin to
// bound a claimed element count (times this minimum) against the
// configured maximum message size before trusting it.
func (p *TCompactProtocol) getMinSerializedSize(ttype TType) int32 {
	switch ttype {
	case STOP, VOID, BOOL, BYTE, I16, I32, I64, STRING, STRUCT, MAP, SET, LIST:
		return 1
	case DOUBLE:
		return 8
	case UUID:
		return 16
	default:
		return 1
	}
}

var (
	_ TConfigurationSetter = (*TCompactProtocolFactory)(nil)
	_ TConfigurationSetter = (*TCompactProtocol)(nil)
	_ TProtocolFactory     = (*TCompactProtocolFactory)(nil)
	_ TProtocol            = (*TCompactProtocol)(nil)
)
