package kinematics

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithAlpha sets the weight given to the freshly observed velocity.
// Values outside (0, 1] are ignored.
func WithAlpha(alpha float64) Option {
	return func(p *Predictor) {
		if alpha > 0 && alpha <= 1 {
			p.alpha = alpha
		}
	}
}

// WithDTFloor sets the minimum delta-time and velocity denominator.
func WithDTFloor(floor float64) Option {
	return func(p *Predictor) {
		if floor > 0 {
			p.dtFloor = floor
		}
	}
}

// WithDefaultDT sets the delta-time used when a row carries neither an
// explicit value nor both frame ids.
func WithDefaultDT(dt float64) Option {
	return func(p *Predictor) {
		if dt > 0 {
			p.defaultDT = dt
		}
	}
}
