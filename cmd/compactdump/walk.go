// Command compactdump walks a file of compact-protocol-encoded bytes
// and prints its message/struct/field structure. It exists to give the
// codec package's public reader surface an actual caller outside of
// tests, the way kryptco-kr's "kr" binary is the caller that exercises
// its daemon's protocol package.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ebourg/thrift/lib/go/thrift"
)

// fieldNameCacheSize bounds the LRU used to memoize field-id -> name
// resolutions. A message with a pathological number of distinct
// (depth, field id) pairs degrades to cache misses instead of
// unbounded growth.
const fieldNameCacheSize = 4096

// walker drives a thrift.TProtocol and renders what it reads as
// indented, human-readable lines. It knows nothing about any
// particular IDL — field names are best-effort, resolved from an
// optional sidecar map and cached, and fall back to the bare id.
type walker struct {
	proto TProtocolReader
	out   io.Writer

	names     map[string]string // "depth:fieldID" -> human name, loaded from a sidecar file
	nameCache *lru.Cache

	paint paintFuncs
}

// TProtocolReader is the subset of thrift.TProtocol this tool reads
// through. Spelled out explicitly (rather than depending on the full
// interface) so it's obvious at a glance that compactdump is a pure
// reader and never writes back to the stream it's inspecting.
type TProtocolReader interface {
	ReadMessageBegin(ctx context.Context) (name string, typeId thrift.TMessageType, seqid int32, err error)
	ReadMessageEnd(ctx context.Context) error
	ReadStructBegin(ctx context.Context) (name string, err error)
	ReadStructEnd(ctx context.Context) error
	ReadFieldBegin(ctx context.Context) (name string, typeId thrift.TType, id int16, err error)
	ReadFieldEnd(ctx context.Context) error
	ReadBool(ctx context.Context) (bool, error)
	ReadByte(ctx context.Context) (int8, error)
	ReadI16(ctx context.Context) (int16, error)
	ReadI32(ctx context.Context) (int32, error)
	ReadI64(ctx context.Context) (int64, error)
	ReadDouble(ctx context.Context) (float64, error)
	ReadString(ctx context.Context) (string, error)
	ReadUUID(ctx context.Context) (thrift.Tuuid, error)
	ReadListBegin(ctx context.Context) (elemType thrift.TType, size int, err error)
	ReadListEnd(ctx context.Context) error
	ReadSetBegin(ctx context.Context) (elemType thrift.TType, size int, err error)
	ReadSetEnd(ctx context.Context) error
	ReadMapBegin(ctx context.Context) (keyType thrift.TType, valueType thrift.TType, size int, err error)
	ReadMapEnd(ctx context.Context) error
	Skip(ctx context.Context, fieldType thrift.TType) error
}

type paintFuncs struct {
	header func(format string, a ...interface{}) string
	field  func(format string, a ...interface{}) string
	stop   func(format string, a ...interface{}) string
}

func newWalker(proto TProtocolReader, out io.Writer, namesPath string, paint paintFuncs) (*walker, error) {
	cache, err := lru.New(fieldNameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("allocate field name cache: %w", err)
	}
	w := &walker{proto: proto, out: out, nameCache: cache, paint: paint}
	if namesPath != "" {
		names, err := loadNames(namesPath)
		if err != nil {
			return nil, err
		}
		w.names = names
	}
	return w, nil
}

func loadNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field name map: %w", err)
	}
	defer f.Close()
	var names map[string]string
	if err := json.NewDecoder(f).Decode(&names); err != nil {
		return nil, fmt.Errorf("parse field name map: %w", err)
	}
	return names, nil
}

// resolveName looks up a human name for fieldID at the given nesting
// depth, through the LRU cache backed by the sidecar map.
func (w *walker) resolveName(depth int, fieldID int16) string {
	key := strconv.Itoa(depth) + ":" + strconv.Itoa(int(fieldID))
	if v, ok := w.nameCache.Get(key); ok {
		return v.(string)
	}
	name := strconv.Itoa(int(fieldID))
	if w.names != nil {
		if n, ok := w.names[key]; ok {
			name = n
		}
	}
	w.nameCache.Add(key, name)
	return name
}

// WalkMessage reads exactly one message and its top-level struct,
// printing as it goes.
func (w *walker) WalkMessage(ctx context.Context) error {
	name, mtype, seqid, err := w.proto.ReadMessageBegin(ctx)
	if err != nil {
		return fmt.Errorf("read message begin: %w", err)
	}
	fmt.Fprintln(w.out, w.paint.header("message %s type=%s seqid=%d", name, mtype, seqid))

	if err := w.walkStruct(ctx, 1); err != nil {
		return err
	}
	return w.proto.ReadMessageEnd(ctx)
}

func (w *walker) walkStruct(ctx context.Context, depth int) error {
	if _, err := w.proto.ReadStructBegin(ctx); err != nil {
		return fmt.Errorf("read struct begin at depth %d: %w", depth, err)
	}
	indent := strings.Repeat("  ", depth)
	for {
		_, fieldType, fieldID, err := w.proto.ReadFieldBegin(ctx)
		if err != nil {
			return fmt.Errorf("read field begin at depth %d: %w", depth, err)
		}
		if fieldType == thrift.STOP {
			fmt.Fprintln(w.out, indent+w.paint.stop("STOP"))
			break
		}
		label := w.resolveName(depth, fieldID)
		fmt.Fprint(w.out, indent+w.paint.field("%s (%s)", label, fieldType))
		if err := w.walkValue(ctx, fieldType, depth); err != nil {
			return fmt.Errorf("field %s at depth %d: %w", label, depth, err)
		}
		if err := w.proto.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return w.proto.ReadStructEnd(ctx)
}

// walkValue prints one value of kind t, recursing into structs and
// containers. Scalars print inline after the field header already
// written by the caller; containers and structs print their own
// trailing newline.
func (w *walker) walkValue(ctx context.Context, t thrift.TType, depth int) error {
	switch t {
	case thrift.BOOL:
		v, err := w.proto.ReadBool(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %v\n", v)
	case thrift.BYTE:
		v, err := w.proto.ReadByte(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %d\n", v)
	case thrift.I16:
		v, err := w.proto.ReadI16(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %d\n", v)
	case thrift.I32:
		v, err := w.proto.ReadI32(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %d\n", v)
	case thrift.I64:
		v, err := w.proto.ReadI64(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %d\n", v)
	case thrift.DOUBLE:
		v, err := w.proto.ReadDouble(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %v\n", v)
	case thrift.STRING:
		v, err := w.proto.ReadString(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %q\n", v)
	case thrift.UUID:
		v, err := w.proto.ReadUUID(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " = %s\n", v)
	case thrift.STRUCT:
		fmt.Fprintln(w.out)
		return w.walkStruct(ctx, depth+1)
	case thrift.LIST:
		elemType, size, err := w.proto.ReadListBegin(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " list<%s>[%d]\n", elemType, size)
		for i := 0; i < size; i++ {
			if err := w.walkValue(ctx, elemType, depth+1); err != nil {
				return err
			}
		}
		return w.proto.ReadListEnd(ctx)
	case thrift.SET:
		elemType, size, err := w.proto.ReadSetBegin(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " set<%s>[%d]\n", elemType, size)
		for i := 0; i < size; i++ {
			if err := w.walkValue(ctx, elemType, depth+1); err != nil {
				return err
			}
		}
		return w.proto.ReadSetEnd(ctx)
	case thrift.MAP:
		keyType, valueType, size, err := w.proto.ReadMapBegin(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, " map<%s,%s>[%d]\n", keyType, valueType, size)
		for i := 0; i < size; i++ {
			if err := w.walkValue(ctx, keyType, depth+1); err != nil {
				return err
			}
			if err := w.walkValue(ctx, valueType, depth+1); err != nil {
				return err
			}
		}
		return w.proto.ReadMapEnd(ctx)
	default:
		fmt.Fprintln(w.out)
		return w.proto.Skip(ctx, t)
	}
	return nil
}
