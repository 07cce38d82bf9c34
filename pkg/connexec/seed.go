package connexec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TableNameKey is the reserved key naming target table of a seed row.
const TableNameKey = "__tablename__"

// Row is column name => value.
type Row map[string]interface{}

// SeedRow is one row insert intent.
type SeedRow struct {
	Table  string
	Values Row
}

// SeedData is the data inserted right before the upgrade landing on a revision.
//
// In YAML it is either a single mapping or a list of mappings, each with __tablename__:
//
//	"2_add_email":
//	  - __tablename__: users
//	    id: 1
//	    name: john
type SeedData []SeedRow

func (s *SeedData) UnmarshalYAML(value *yaml.Node) error {
	var raw []map[string]interface{}
	switch value.Kind {
	case yaml.MappingNode:
		single := map[string]interface{}{}
		if err := value.Decode(&single); err != nil {
			return err
		}

		raw = append(raw, single)

	case yaml.SequenceNode:
		if err := value.Decode(&raw); err != nil {
			return err
		}

	default:
		return fmt.Errorf("line %d: seed data must be a mapping or a list of mappings", value.Line)
	}

	out := make(SeedData, 0, len(raw))
	for i, item := range raw {
		row, err := NewSeedRow(item)
		if err != nil {
			return fmt.Errorf("line %d: item %d: %w", value.Line, i, err)
		}

		out = append(out, row)
	}

	*s = out
	return nil
}

// NewSeedRow takes table name from __tablename__ key, the rest become the row values.
func NewSeedRow(item map[string]interface{}) (SeedRow, error) {
	table, ok := item[TableNameKey].(string)
	if !ok || table == "" {
		return SeedRow{}, fmt.Errorf("missing %s", TableNameKey)
	}

	values := make(Row, len(item))
	for k, v := range item {
		if k == TableNameKey {
			continue
		}

		values[k] = v
	}

	return SeedRow{Table: table, Values: values}, nil
}
