package domain

import "strings"

// EntryPointDef declares one canonical entry point: its name, fixed
// coordinates, and the alternate labels the source data uses for it.
type EntryPointDef struct {
	Name    string
	Lat     float64
	Lon     float64
	Aliases []string
}

// Resolver maps raw detection-region labels to canonical entry points.
// The alias table is immutable configuration injected at construction;
// nothing consults global state. Matching is exact and case-sensitive
// after whitespace trimming.
type Resolver struct {
	table   []EntryPointDef
	byLabel map[string]EntryPointDef
}

// NewResolver builds a Resolver from an alias table. Both the canonical
// name and every alias resolve to the canonical definition. Later table
// entries do not steal labels already claimed by earlier ones.
func NewResolver(table []EntryPointDef) *Resolver {
	byLabel := make(map[string]EntryPointDef, len(table)*2)
	for _, def := range table {
		if _, exists := byLabel[def.Name]; !exists {
			byLabel[def.Name] = def
		}
		for _, alias := range def.Aliases {
			if _, exists := byLabel[alias]; !exists {
				byLabel[alias] = def
			}
		}
	}
	return &Resolver{table: table, byLabel: byLabel}
}

// Resolve returns the canonical entry point for a raw label, or false if
// no table entry matches after trimming.
func (r *Resolver) Resolve(label string) (EntryPointDef, bool) {
	def, ok := r.byLabel[strings.TrimSpace(label)]
	return def, ok
}

// EntryPoints returns the canonical definitions in table order.
func (r *Resolver) EntryPoints() []EntryPointDef {
	return r.table
}

// DefaultAliasTable is the hand-maintained table for the NYC Congestion
// Relief Zone. Aliases naming the same physical crossing are folded onto
// one canonical entry point; "FDR Drive" and "East 60th St" are distinct
// crossings that share coordinates in the upstream table and stay separate.
func DefaultAliasTable() []EntryPointDef {
	return []EntryPointDef{
		{Name: "Brooklyn Bridge", Lat: 40.7061, Lon: -73.9969, Aliases: []string{"Brooklyn"}},
		{Name: "Manhattan Bridge", Lat: 40.7075, Lon: -73.9903, Aliases: []string{"Manhattan"}},
		{Name: "Williamsburg Bridge", Lat: 40.7131, Lon: -73.9722, Aliases: []string{"Williamsburg"}},
		{Name: "Queensboro Bridge", Lat: 40.7570, Lon: -73.9543, Aliases: []string{"Queens"}},
		{Name: "Queens Midtown Tunnel", Lat: 40.7440, Lon: -73.9713, Aliases: []string{"Queens Tunnel", "Midtown Tunnel"}},
		{Name: "Hugh L. Carey Tunnel", Lat: 40.7001, Lon: -74.0145, Aliases: []string{"Brooklyn Battery Tunnel", "Battery Tunnel", "Brooklyn Tunnel"}},
		{Name: "Holland Tunnel", Lat: 40.7256, Lon: -74.0119, Aliases: []string{"Holland"}},
		{Name: "Lincoln Tunnel", Lat: 40.7608, Lon: -74.0021, Aliases: []string{"New Jersey"}},
		{Name: "West Side Highway", Lat: 40.7713, Lon: -73.9916},
		{Name: "West 60th St", Lat: 40.7690, Lon: -73.9851},
		{Name: "FDR Drive", Lat: 40.7625, Lon: -73.9595},
		{Name: "East 60th St", Lat: 40.7625, Lon: -73.9595},
	}
}
