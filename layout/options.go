package layout

import "math/rand/v2"

// Physics constants. These drive the force hierarchy: cohesion dominates so
// the SCC cycle stays a compact center, gravity and whirlwind shape the
// orbits around it, arc and proximity forces settle local structure.
const (
	GravityConstant               = 1.2     // arc attraction beyond equilibrium
	SpringConstant                = 30.0    // spring repulsion inside equilibrium
	ProximityConstant             = 6.0     // hub-to-hub Coulomb repulsion
	AmbientConstant               = 1000.0  // base for universal repulsion
	UniversalRepulsionMultiplier  = 2.0
	HubGroupConstant              = 30.0    // repulsion between hub groups
	SCCCohesionStrength           = 30000.0 // pulls SCC members toward centroid
	SCCTargetRadius               = 30.0
	SCCGravityConstant            = 300.0 // attracts hubs toward the SCC
	SCCGravityMinMass             = 150.0 // only hubs feel SCC gravity
	SCCArcWeakeningFactor         = 0.3   // hub-to-SCC arcs are attenuated
	HubMassThreshold              = 150.0 // between place (100) and hub (200+)
	SCCWhirlwindStrength          = 50.0  // tangential spiral force
	PulsationStrength             = 10.0  // stochastic force temperature
	PulsationDecay                = 0.95  // temperature decay per sample
	PulsationFloor                = 0.1   // fraction of strength kept after convergence
	EquilibriumScale              = 0.5
	MassExponent                  = 0.1
	ArcWeightExponent             = -0.3
	TimeStep                      = 0.5
	VelocityDamping               = 0.9
	MaxForce                      = 100000.0
	MinDistance                   = 1.0
	DampingFieldMaxDistance       = 1000.0
	DampingFieldMin               = 0.1
	VarianceWindow                = 50
	VarianceThreshold             = 0.01
	convergenceSampleInterval     = 10 // iterations between variance samples
)

// Options configures one Engine run. Zero value is not useful; start from
// DefaultOptions.
type Options struct {
	EnableOscillatory  bool    // arc forces
	EnableProximity    bool    // all-pairs repulsion, hub groups, cohesion
	EnableAmbient      bool    // universal ambient-spacing repulsion between all pairs
	PulsationEnabled   bool    // annealing noise
	WhirlwindEnabled   bool    // tangential spiral force
	WhirlwindDirection float64 // +1 counterclockwise, -1 clockwise

	Iterations int // maximum iterations before Run returns

	// Progress, when non-nil, is invoked every 10 iterations with the
	// current iteration and the configured total.
	Progress func(iteration, total int)

	// Rand overrides the PRNG used for equilibrium jitter and pulsation
	// noise. Defaults to a fixed-seed PCG so runs are reproducible.
	Rand *rand.Rand
}

// DefaultOptions returns the calibration the force constants above were
// tuned for.
func DefaultOptions() Options {
	return Options{
		EnableOscillatory:  true,
		EnableProximity:    true,
		EnableAmbient:      true,
		PulsationEnabled:   true,
		WhirlwindEnabled:   true,
		WhirlwindDirection: 1.0,
		Iterations:         1000,
	}
}

// Result reports how a Run ended.
type Result struct {
	Iterations  int     // iterations actually executed
	Converged   bool    // variance stabilized before the iteration cap
	Variance    float64 // last sampled position variance
	Temperature float64 // pulsation temperature at exit
}
