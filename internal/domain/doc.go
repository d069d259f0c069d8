// Package domain models MTA Congestion Relief Zone (CRZ) vehicle-entry data.
//
// # Data Source
//
// Entry counts originate from the MTA open-data export "Congestion Relief
// Zone Vehicle Entries", a CSV with one row per (ten-minute toll block,
// detection region, vehicle class). The export is large, hand-joined from
// several tolling systems, and its text columns are not reliable: counts
// appear as integers or floats, timestamps occasionally fail to parse, and
// region labels carry stray whitespace and informal names.
//
// # CSV Conventions
//
// Toll block timestamps:
//
//	"MM/DD/YYYY HH:MM:SS AM" in the current export, e.g. "03/29/2025 08:10:00 AM".
//	Older extracts use "YYYY-MM-DD HH:MM". Both layouts are accepted; the
//	primary layout is configurable.
//
// Counts:
//
//	"CRZ Entries" is the number of chargeable vehicle entries in the block.
//	"Excluded Roadway Entries" counts vehicles on excluded roadways (FDR
//	Drive, West Side Highway) that crossed a detection point but are not
//	charged. The excluded column is optional and defaults to zero; a row is
//	never dropped because of it.
//
// Detection regions:
//
//	Free-text labels naming the crossing: "Lincoln Tunnel", "Brooklyn
//	Bridge", sometimes shorthand like "Holland" or "Queens Tunnel". Labels
//	are matched after whitespace trimming, case-sensitively, against a
//	hand-maintained alias table that maps every known label to a canonical
//	entry point with fixed WGS-84 coordinates. Unmatched labels cause the
//	row to be skipped, never the run to fail.
//
// Vehicle classes:
//
//	Categorical labels such as "1 - Cars, Pickups and Vans" or "TLC Taxi/FHV".
//	The set is discovered from the data itself, not declared up front.
//
// # Entry point identity
//
// Several labels name the same physical crossing ("Holland" and "Holland
// Tunnel" share coordinates). Aliases collapse onto one canonical entry
// point so that totals are not double-counted when both labels appear for
// the same location. "FDR Drive" and "East 60th St" are distinct crossings
// that happen to share coordinates in the source table and stay separate.
//
// # Source keys
//
// Each surviving row gets a deterministic SHA-256 source key derived from
// its timestamp, labels, and row offset. The key backs a unique column in
// the fact table, so re-running the loader over the same file inserts
// nothing new. See [SourceKey].
package domain
