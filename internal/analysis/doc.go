// Package analysis inspects recorded run series. Spectrum finds how fast the
// fluid sloshes from the oscillation of its centroid or kinetic energy.
package analysis
