package redshift

import (
	"strings"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
)

// Column is one column as reported by information_schema.
type Column struct {
	Table    string
	Position int
	Name     string
	Type     string
	Nullable bool
}

var (
	stringTypes   = []string{"char", "character", "nchar", "bpchar", "text", "varchar", "character varying", "nvarchar"}
	floatTypes    = []string{"float", "float4", "float8", "real", "double precision"}
	numericTypes  = []string{"numeric", "decimal"}
	booleanTypes  = []string{"bool", "boolean"}
	dateTypes     = []string{"date"}
	dateTimeTypes = []string{"timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone"}

	bytesForIntegerType = map[string]int{
		"int2":     2,
		"smallint": 2,
		"int":      4,
		"int4":     4,
		"integer":  4,
		"int8":     8,
		"bigint":   8,
	}
)

// fragments maps a lowercased native type to a builder of its fragment.
var fragments = buildFragments()

func buildFragments() map[string]func() *catalog.Schema {
	m := make(map[string]func() *catalog.Schema)
	register := func(types []string, build func() *catalog.Schema) {
		for _, t := range types {
			m[t] = build
		}
	}

	register(stringTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeString}}
	})
	register(floatTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeNumber}}
	})
	register(numericTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeNumber}}
	})
	register(booleanTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeBoolean}}
	})
	register(dateTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeString}, Format: catalog.FormatDate}
	})
	register(dateTimeTypes, func() *catalog.Schema {
		return &catalog.Schema{Type: catalog.TypeList{catalog.TypeString}, Format: catalog.FormatDateTime}
	})

	for t, size := range bytesForIntegerType {
		bits := uint(size * 8)
		register([]string{t}, func() *catalog.Schema {
			minimum := int64(-1) << (bits - 1)
			maximum := -(minimum + 1)
			return &catalog.Schema{
				Type:    catalog.TypeList{catalog.TypeInteger},
				Minimum: &minimum,
				Maximum: &maximum,
			}
		})
	}

	return m
}

// SchemaForColumn maps a column to its JSON-schema fragment. Types without a
// mapping produce an unsupported fragment rather than an error.
func SchemaForColumn(c Column) *catalog.Schema {
	nativeType := strings.ToLower(strings.TrimSpace(c.Type))

	build, ok := fragments[nativeType]
	if !ok {
		return &catalog.Schema{
			Inclusion:   catalog.InclusionUnsupported,
			Description: "Unsupported column type " + nativeType,
		}
	}

	s := build()
	s.Inclusion = catalog.InclusionAvailable
	if c.Nullable {
		s.Type = catalog.TypeList{catalog.TypeNull, s.Type[0]}
	}
	return s
}
