// Package vitals provides the business boundary for vitals recording. It
// defines the Service (patient resolution, scoring, atomic persistence),
// Engine (two-tier interpretation with deterministic fallback), Store
// interface (persistence), and domain models.
package vitals
