// Package planner lowers a parsed SelectInfo into the engine-specific
// compute-kernel expressions described in spec §4.4 ("Lowering to
// compute kernels") and §6.3: check_not_filtered over row ids, and
// fetch_vector / fetch_sparse_vector per selected vector column.
package planner

import (
	"github.com/zvecdb/zvec-core/internal/sqlengine/ast"
	"github.com/zvecdb/zvec-core/internal/storage"
)

// FetchKind distinguishes a dense fetch_vector expression from a
// sparse fetch_sparse_vector one (spec §6.3's is_dense option).
type FetchKind int

const (
	FetchDense FetchKind = iota
	FetchSparse
)

// FetchExpr is a lowered SELECT-list vector column expression.
type FetchExpr struct {
	FieldName string
	Alias     string
	Kind      FetchKind
}

// Plan is the lowered form of a SelectInfo: the column expressions to
// evaluate per row, plus the retained filter/condition metadata needed
// to execute it against a segment indexer.
type Plan struct {
	TableName    string
	Fetches      []FetchExpr
	PlainColumns []string // selected columns that are not vector fetches
	SearchCond   *ast.Node
	OrderBy      []ast.OrderByElem
	Limit        int
}

// Lower builds a Plan from a parsed SelectInfo. Vector/embedding
// columns named "vector" or "embedding" lower to a dense fetch;
// columns named "sparse_vector" lower to a sparse fetch; every other
// selected element is a plain persisted column (spec §4.4's "Each
// leaf of the filter AST that references a persistent column becomes
// a column expression").
func Lower(info *ast.SelectInfo) *Plan {
	plan := &Plan{
		TableName:  info.TableName,
		SearchCond: info.SearchCond,
		OrderBy:    info.OrderByElems,
		Limit:      info.Limit,
	}
	for _, elem := range info.SelectedElems {
		if elem.Asterisk {
			plan.Fetches = append(plan.Fetches,
				FetchExpr{FieldName: "vector", Kind: FetchDense},
				FetchExpr{FieldName: "sparse_vector", Kind: FetchSparse},
			)
			plan.PlainColumns = append(plan.PlainColumns, "id")
			continue
		}
		switch elem.FieldName {
		case "vector", "embedding":
			plan.Fetches = append(plan.Fetches, FetchExpr{FieldName: elem.FieldName, Alias: elem.Alias, Kind: FetchDense})
		case "sparse_vector":
			plan.Fetches = append(plan.Fetches, FetchExpr{FieldName: elem.FieldName, Alias: elem.Alias, Kind: FetchSparse})
		default:
			if elem.FieldName != "" {
				plan.PlainColumns = append(plan.PlainColumns, elem.FieldName)
			}
		}
	}
	return plan
}

// CheckNotFiltered is the check_not_filtered(row_id) kernel (spec
// §4.4, §6.3): given a column of row ids and an IndexFilter, it
// returns a boolean column of the same length, true where the row is
// NOT filtered.
func CheckNotFiltered(ids *storage.Column, filter storage.IndexFilter) (*storage.Column, error) {
	if filter == nil {
		return nil, storage.ErrFilterAbsent
	}
	out := make([]bool, len(ids.Uint64s))
	for i, id := range ids.Uint64s {
		out[i] = !filter.IsFiltered(id)
	}
	return &storage.Column{Type: storage.ColBool, Bools: out}, nil
}

// FetchVector is the fetch_vector(row_id) kernel (spec §4.4, §6.3): for
// each row id, it queries indexer for the dense vector buffer,
// producing a binary column with a null entry for rows with no dense
// vector.
func FetchVector(ids *storage.Column, indexer storage.SegmentIndexer) (*storage.Column, error) {
	if indexer == nil {
		return nil, storage.ErrIndexerAbsent
	}
	out := make([][]byte, len(ids.Uint64s))
	for i, id := range ids.Uint64s {
		buf, ok, err := indexer.FetchDense(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = buf
		}
	}
	return &storage.Column{Type: storage.ColBinary, Binaries: out}, nil
}

// FetchSparseVector is the fetch_sparse_vector(row_id) kernel (spec
// §4.4, §6.3): for each row id, it queries indexer for the sparse
// vector's index/value byte streams, producing a struct column.
func FetchSparseVector(ids *storage.Column, indexer storage.SegmentIndexer) (*storage.Column, error) {
	if indexer == nil {
		return nil, storage.ErrIndexerAbsent
	}
	out := make([]storage.StructColumn, len(ids.Uint64s))
	for i, id := range ids.Uint64s {
		idxBytes, valBytes, ok, err := indexer.FetchSparse(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = storage.StructColumn{Indices: idxBytes, Values: valBytes}
		}
	}
	return &storage.Column{Type: storage.ColStruct, Structs: out}, nil
}
