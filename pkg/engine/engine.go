// Package engine wires the plan cache, planner and storage kernels
// into the two entrypoints the rest of the repo calls: ExecuteQuery
// (parse, plan, and run a SELECT against a segment) and ComputeDistance
// (compute a raw dense or sparse distance matrix without going through
// SQL at all). It is the "pkg/engine" wiring module spec.md's component
// table implies but never names a file for.
package engine

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zvecdb/zvec-core/internal/simd"
	"github.com/zvecdb/zvec-core/internal/sqlengine/plancache"
	"github.com/zvecdb/zvec-core/internal/sqlengine/planner"
	"github.com/zvecdb/zvec-core/internal/storage"
)

// ErrInvalidArgument signals a malformed caller request: an F32 or F16
// buffer whose byte length is not a multiple of the element size, or an
// element type the called function does not support.
var ErrInvalidArgument = fmt.Errorf("engine: invalid argument")

// Namespace is one queryable segment: a plan cache, a row-id -> vector
// indexer, and an optional row-exclusion filter. A Registry (pkg/tenant)
// holds one Namespace per tenant; a standalone caller can also build one
// directly for a single-segment deployment.
type Namespace struct {
	Cache   *plancache.Cache
	Indexer storage.SegmentIndexer
	Filter  storage.IndexFilter
}

// NewNamespace builds a Namespace with a plan cache of the given
// capacity (plancache.DefaultCapacity if capacity <= 0).
func NewNamespace(indexer storage.SegmentIndexer, filter storage.IndexFilter, cacheCapacity int) *Namespace {
	if cacheCapacity <= 0 {
		cacheCapacity = plancache.DefaultCapacity
	}
	return &Namespace{
		Cache:   plancache.New(cacheCapacity),
		Indexer: indexer,
		Filter:  filter,
	}
}

// QueryResult is the lowered-and-executed outcome of a SELECT: the
// record batch the planner's kernels produced, plus the plan itself for
// callers that want the search condition, order-by, or limit to post-
// process the batch.
type QueryResult struct {
	Plan  *planner.Plan
	Batch *storage.RecordBatch
}

// ExecuteQuery parses query (through ns's plan cache), lowers it to a
// Plan, and runs the plan's fetch kernels over ids: check_not_filtered
// against ns.Filter, then fetch_vector / fetch_sparse_vector per
// selected vector column against ns.Indexer (spec §4.4). The result
// batch always carries an "id" column, then a "kept" boolean column
// when ns.Filter is set, followed by one column per lowered fetch in
// select-list order.
func (ns *Namespace) ExecuteQuery(query string, ids []uint64) (*QueryResult, error) {
	info, err := ns.Cache.Parse(query)
	if err != nil {
		return nil, err
	}
	plan := planner.Lower(info)

	idCol := &storage.Column{Type: storage.ColUint64, Uint64s: ids}

	schema := storage.Schema{Fields: []storage.Field{{Name: "id", Type: storage.ColUint64}}}
	columns := []*storage.Column{idCol}

	if ns.Filter != nil {
		kept, err := planner.CheckNotFiltered(idCol, ns.Filter)
		if err != nil {
			return nil, err
		}
		schema.Fields = append(schema.Fields, storage.Field{Name: "kept", Type: storage.ColBool})
		columns = append(columns, kept)
	}

	for _, fetch := range plan.Fetches {
		name := fetch.Alias
		if name == "" {
			name = fetch.FieldName
		}
		switch fetch.Kind {
		case planner.FetchDense:
			col, err := planner.FetchVector(idCol, ns.Indexer)
			if err != nil {
				return nil, err
			}
			schema.Fields = append(schema.Fields, storage.Field{Name: name, Type: storage.ColBinary})
			columns = append(columns, col)
		case planner.FetchSparse:
			col, err := planner.FetchSparseVector(idCol, ns.Indexer)
			if err != nil {
				return nil, err
			}
			schema.Fields = append(schema.Fields, storage.Field{Name: name, Type: storage.ColStruct})
			columns = append(columns, col)
		}
	}

	batch := &storage.RecordBatch{Schema: schema, Columns: columns}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return &QueryResult{Plan: plan, Batch: batch}, nil
}

// DistanceRequest describes a raw dense distance-matrix computation,
// bypassing SQL entirely (spec §4.1's kernel contract exposed directly
// for callers, such as ComputeDistance RPCs, that already hold decoded
// vector buffers rather than row ids).
type DistanceRequest struct {
	Element simd.ElementType
	Op      simd.Op
	Dim     int
	M, N    int
	Stored  []byte
	Query   []byte
}

// ComputeDistance runs the dense kernel matching req.Element over req's
// byte buffers, returning the M*N column-major result (spec §3.2, §4.1).
func ComputeDistance(req DistanceRequest) ([]float32, error) {
	out := make([]float32, req.M*req.N)
	switch req.Element {
	case simd.F32:
		stored, err := bytesToFloat32(req.Stored)
		if err != nil {
			return nil, err
		}
		query, err := bytesToFloat32(req.Query)
		if err != nil {
			return nil, err
		}
		if err := simd.DenseF32(stored, query, req.Dim, req.M, req.N, out, req.Op); err != nil {
			return nil, err
		}
	case simd.F16:
		stored, err := bytesToHalf(req.Stored)
		if err != nil {
			return nil, err
		}
		query, err := bytesToHalf(req.Query)
		if err != nil {
			return nil, err
		}
		if err := simd.DenseF16(stored, query, req.Dim, req.M, req.N, out, req.Op); err != nil {
			return nil, err
		}
	case simd.I8:
		stored := bytesToInt8(req.Stored)
		query := bytesToInt8(req.Query)
		if err := simd.DenseI8(stored, query, req.Dim, req.M, req.N, out, req.Op); err != nil {
			return nil, err
		}
	case simd.I4:
		if err := simd.DenseI4(req.Stored, req.Query, req.Dim, req.M, req.N, out, req.Op); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown element type %v", ErrInvalidArgument, req.Element)
	}
	return out, nil
}

// SparseDistanceRequest describes a raw sparse negated-inner-product
// computation over two on-wire sparse buffers (spec §3.3, §4.2).
type SparseDistanceRequest struct {
	Element simd.ElementType // F32 or F16
	Stored  []byte
	Query   []byte
}

// ComputeSparseDistance runs MinusIP over req's on-wire sparse buffers.
func ComputeSparseDistance(req SparseDistanceRequest) (float32, error) {
	switch req.Element {
	case simd.F32:
		return simd.MinusIPF32(req.Stored, req.Query)
	case simd.F16:
		return simd.MinusIPF16(req.Stored, req.Query)
	default:
		return 0, fmt.Errorf("%w: sparse distance only supports F32/F16, got %v", ErrInvalidArgument, req.Element)
	}
}

func bytesToFloat32(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: f32 buffer length %d not a multiple of 4", ErrInvalidArgument, len(buf))
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

func bytesToHalf(buf []byte) ([]simd.Half, error) {
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("%w: f16 buffer length %d not a multiple of 2", ErrInvalidArgument, len(buf))
	}
	out := make([]simd.Half, len(buf)/2)
	for i := range out {
		out[i] = simd.Half(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return out, nil
}

func bytesToInt8(buf []byte) []int8 {
	out := make([]int8, len(buf))
	for i, b := range buf {
		out[i] = int8(b)
	}
	return out
}
