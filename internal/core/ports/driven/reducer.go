package driven

// Reducer projects high-dimensional points onto fewer components.
type Reducer interface {
	// Name identifies the reducer in logs.
	Name() string

	// Reduce maps n rows of d columns onto n rows of at most components columns.
	Reduce(data [][]float64, components int) ([][]float64, error)
}
