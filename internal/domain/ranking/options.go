package ranking

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxComparisons caps the number of answers the engine will replay
// before forcing convergence.
func WithMaxComparisons(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxComparisons = n
		}
	}
}
