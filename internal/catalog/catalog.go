// Package catalog holds the static search facets (range buckets and enumerations)
// for chairs and estates. It is loaded once before serving and never mutated.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ChairConditionFile  = "chair_condition.json"
	EstateConditionFile = "estate_condition.json"
)

//go:embed fixture/*.json
var embedded embed.FS

// Unbounded marks an open end of a Range.
const Unbounded int64 = -1

type Range struct {
	ID  int64 `json:"id"`
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type RangeCondition struct {
	Prefix string   `json:"prefix"`
	Suffix string   `json:"suffix"`
	Ranges []*Range `json:"ranges"`
}

// Lookup returns the bucket whose id is id. Bucket ids are their index.
func (c *RangeCondition) Lookup(id int64) (Range, bool) {
	if c == nil || id < 0 || id >= int64(len(c.Ranges)) {
		return Range{}, false
	}
	r := c.Ranges[id]
	if r == nil || r.ID != id {
		return Range{}, false
	}
	return *r, true
}

type ListCondition struct {
	List []string `json:"list"`
}

type ChairSearchCondition struct {
	Width   RangeCondition `json:"width"`
	Height  RangeCondition `json:"height"`
	Depth   RangeCondition `json:"depth"`
	Price   RangeCondition `json:"price"`
	Color   ListCondition  `json:"color"`
	Feature ListCondition  `json:"feature"`
	Kind    ListCondition  `json:"kind"`
}

type EstateSearchCondition struct {
	DoorWidth  RangeCondition `json:"doorWidth"`
	DoorHeight RangeCondition `json:"doorHeight"`
	Rent       RangeCondition `json:"rent"`
	Feature    ListCondition  `json:"feature"`
}

// Catalog keeps both the parsed conditions and the raw fixture bytes, which
// are served verbatim.
type Catalog struct {
	Chair     ChairSearchCondition
	Estate    EstateSearchCondition
	chairRaw  []byte
	estateRaw []byte
}

func (c *Catalog) ChairJSON() []byte  { return c.chairRaw }
func (c *Catalog) EstateJSON() []byte { return c.estateRaw }

// Load reads both condition fixtures from dir, or from the embedded copies
// when dir is empty.
func Load(dir string) (*Catalog, error) {
	read := func(name string) ([]byte, error) {
		if dir == "" {
			return embedded.ReadFile("fixture/" + name)
		}
		return os.ReadFile(filepath.Join(dir, name))
	}

	chairRaw, err := read(ChairConditionFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ChairConditionFile, err)
	}
	estateRaw, err := read(EstateConditionFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", EstateConditionFile, err)
	}

	c := &Catalog{chairRaw: chairRaw, estateRaw: estateRaw}
	if err := json.Unmarshal(chairRaw, &c.Chair); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ChairConditionFile, err)
	}
	if err := json.Unmarshal(estateRaw, &c.Estate); err != nil {
		return nil, fmt.Errorf("parse %s: %w", EstateConditionFile, err)
	}
	return c, nil
}
