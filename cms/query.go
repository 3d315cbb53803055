package cms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Sortable document fields.
const (
	FieldFirstPublicationDate = "document.first_publication_date"
	FieldLastPublicationDate  = "document.last_publication_date"
	FieldDocumentID           = "document.id"
)

// MaxPageSize is the largest page the content API serves.
const MaxPageSize = 100

var sortableFields = map[string]bool{
	FieldFirstPublicationDate: true,
	FieldLastPublicationDate:  true,
	FieldDocumentID:           true,
}

// Ordering sorts results by Field, ascending unless Desc is set.
type Ordering struct {
	Field string
	Desc  bool
}

func (o Ordering) String() string {
	if o.Desc {
		return o.Field + " desc"
	}
	return o.Field
}

// NewestFirst orders posts by first publication, latest first.
var NewestFirst = []Ordering{{Field: FieldFirstPublicationDate, Desc: true}}

// Predicate is a single query filter in the content API's predicate syntax.
type Predicate string

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + "," + strconv.Quote(value) + ")]")
}

// In matches documents whose field at path is one of values.
func In(path string, values []string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[in(" + path + ",[" + strings.Join(quoted, ",") + "])]")
}

// QueryOptions configures a document search.
type QueryOptions struct {
	PageSize   int
	Page       int    // 1-based; zero means the first page
	Ref        string // content release; empty means the master ref
	Orderings  []Ordering
	Predicates []Predicate
	After      string // document id; results start after it in the given ordering
}

func (o QueryOptions) validate() error {
	if o.PageSize <= 0 || o.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size %d out of range 1..%d", ErrInvalidQuery, o.PageSize, MaxPageSize)
	}
	if o.Page < 0 {
		return fmt.Errorf("%w: page %d", ErrInvalidQuery, o.Page)
	}
	for _, ord := range o.Orderings {
		if !sortableFields[ord.Field] {
			return fmt.Errorf("%w: field %q is not sortable", ErrInvalidQuery, ord.Field)
		}
	}
	return nil
}

// values encodes o as search parameters.
func (o QueryOptions) values(ref string) url.Values {
	v := url.Values{}
	v.Set("ref", ref)
	v.Set("pageSize", strconv.Itoa(o.PageSize))
	if o.Page > 1 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if len(o.Predicates) > 0 {
		var q strings.Builder
		q.WriteString("[")
		for _, p := range o.Predicates {
			q.WriteString(string(p))
		}
		q.WriteString("]")
		v.Set("q", q.String())
	}
	if len(o.Orderings) > 0 {
		parts := make([]string, len(o.Orderings))
		for i, ord := range o.Orderings {
			parts[i] = ord.String()
		}
		v.Set("orderings", "["+strings.Join(parts, ",")+"]")
	}
	if o.After != "" {
		v.Set("after", o.After)
	}
	return v
}
