// Package config loads chain configuration.
//
// Configuration is validated against an embedded CUE schema that carries
// every default and constraint. Files may be written in CUE or TOML; TOML is
// decoded first and then unified with the same schema, so both formats obey
// identical rules. Scenario files hand their inline config over as a decoded
// map through FromMap.
package config
