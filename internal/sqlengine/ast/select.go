package ast

// SQLType enumerates the statement kinds the parser recognizes. This
// repo only plans SELECT; the rest of the enum is carried so SQLInfo
// keeps the same shape as the source it is modeled on.
type SQLType int

const (
	SQLNone SQLType = iota
	SQLInsert
	SQLUpsert
	SQLUpdate
	SQLDelete
	SQLCreate
	SQLDrop
	SQLSelect
	SQLShowTables
)

func (t SQLType) String() string {
	names := [...]string{"NONE", "INSERT", "UPSERT", "UPDATE", "DELETE", "CREATE", "DROP", "SELECT", "SHOW_TABLES"}
	if int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

// SQLInfo wraps a parsed statement together with its type, mirroring
// SQLInfo in the source parser.
type SQLInfo struct {
	Type SQLType
	Info *SelectInfo
}

// SelectedElem is one element of a SELECT list.
type SelectedElem struct {
	Asterisk      bool
	Empty         bool
	FieldName     string
	Alias         string
	FuncName      string
	FuncParam     string
	FuncParamStar bool
}

// IsFuncCall reports whether this element calls a function rather than
// referencing a plain column.
func (e SelectedElem) IsFuncCall() bool { return e.FuncName != "" }

// OrderByElem is one ORDER BY clause element.
type OrderByElem struct {
	FieldName string
	Desc      bool
}

func (e OrderByElem) String() string {
	dir := "ASC"
	if e.Desc {
		dir = "DESC"
	}
	return e.FieldName + " " + dir
}

// GroupBy carries a parsed GROUP BY field list. Planning GROUP BY
// itself is out of scope (spec Non-goals); it is kept parsed-but-
// unplanned so a query that names one is not rejected outright.
type GroupBy struct {
	Fields []string
}

// SelectInfo is a parsed SELECT statement (spec §3.5). It is owned by
// the plan cache and cloned per execution so vector-literal
// substitution never mutates the cached copy.
type SelectInfo struct {
	TableName     string
	SelectedElems []SelectedElem
	OrderByElems  []OrderByElem
	SearchCond    *Node
	GroupBy       *GroupBy
	Limit         int // -1 means unset
	IncludeVector bool
	IncludeDocID  bool
}

// NewSelectInfo constructs a SelectInfo with the source's default limit
// sentinel of -1 (unset).
func NewSelectInfo(tableName string) *SelectInfo {
	return &SelectInfo{TableName: tableName, Limit: -1}
}

// Clone deep-copies a SelectInfo, including its search-condition
// subtree, so a plan-cache hit can graft a fresh vector literal into
// the clone without touching the cached original.
func (s *SelectInfo) Clone() *SelectInfo {
	if s == nil {
		return nil
	}
	clone := *s
	clone.SelectedElems = append([]SelectedElem(nil), s.SelectedElems...)
	clone.OrderByElems = append([]OrderByElem(nil), s.OrderByElems...)
	clone.SearchCond = s.SearchCond.Clone()
	if s.GroupBy != nil {
		gb := *s.GroupBy
		gb.Fields = append([]string(nil), s.GroupBy.Fields...)
		clone.GroupBy = &gb
	}
	return &clone
}
