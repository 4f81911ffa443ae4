package culler

// lodEpsilon is the distance at or below which a primitive always gets LOD 0.
const lodEpsilon = 1e-6

// SelectLOD picks a detail level from the distance between the camera and a bounding sphere's surface.
// Level k covers distances in [base*step^(k-1), base*step^k); the thresholds are walked by repeated
// multiplication so results at exact boundaries are deterministic.
//
// Parameters:
//   - distance: distance from the camera to the sphere surface (clamped at 0 by the caller)
//   - base: distance at which LOD 1 starts
//   - step: ratio between consecutive thresholds (> 1)
//   - lodCount: number of LODs the primitive carries
//
// Returns:
//   - int: a LOD index in [0, lodCount-1]
func SelectLOD(distance, base, step float32, lodCount int) int {
	if !(distance > lodEpsilon) || lodCount <= 1 {
		return 0
	}
	k := 0
	for t := base; distance >= t && k < lodCount-1; t *= step {
		k++
	}
	return k
}
