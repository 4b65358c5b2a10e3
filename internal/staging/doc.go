// Package staging inspects and reclaims ddp-in-* staging directories that a
// killed process left under the staging root.
package staging
