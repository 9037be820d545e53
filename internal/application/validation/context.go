package validation

import "github.com/salesrecon/backend/internal/domain/reference"

// Context is the reference snapshot the referential rules check against.
// It is built once per run from the city/district mapping and never mutated.
type Context struct {
	districtIDs   map[int64]struct{}
	cityCodes     map[string]struct{}
	districtNames map[string]struct{}
}

// NewContext indexes the mapping rows by id, city code and district name
func NewContext(mapping []reference.CityDistrict) *Context {
	c := &Context{
		districtIDs:   make(map[int64]struct{}, len(mapping)),
		cityCodes:     make(map[string]struct{}),
		districtNames: make(map[string]struct{}, len(mapping)),
	}
	for _, m := range mapping {
		c.districtIDs[m.CityDistrictID] = struct{}{}
		c.cityCodes[m.ShipCityCode] = struct{}{}
		c.districtNames[m.ShipDistrictName] = struct{}{}
	}
	return c
}

// HasDistrictID reports whether the id exists in the mapping
func (c *Context) HasDistrictID(id int64) bool {
	_, ok := c.districtIDs[id]
	return ok
}

// HasCity reports whether the city code exists in the mapping
func (c *Context) HasCity(code string) bool {
	_, ok := c.cityCodes[code]
	return ok
}

// HasDistrictName reports whether the district name exists in the mapping
func (c *Context) HasDistrictName(name string) bool {
	_, ok := c.districtNames[name]
	return ok
}

// Len returns the number of mapped district ids
func (c *Context) Len() int {
	return len(c.districtIDs)
}
