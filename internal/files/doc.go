// Package files discovers the labor-statistics files the loader imports.
//
// Discovery lists the CSV and Excel files of the data directory (and, when
// recursive, of its immediate subdirectories) in name order and infers the
// publishing source of each file from its name prefix or parent directory:
//
//	data/bls_cps_youth.csv               -> BLS
//	data/worldbank/female_unemployment.csv -> WORLD_BANK
//
// Files whose source cannot be inferred are still listed; the loader skips
// them with a warning.
package files
