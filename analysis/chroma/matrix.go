package chroma

// NumPitchClasses is the number of equal-tempered pitch classes per octave.
const NumPitchClasses = 12

// pitchClassNames maps pitch class index (0=C ... 11=B) to its name.
var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the name of a pitch class (0=C, 1=C#, ..., 11=B).
func PitchClassName(pc int) string {
	return pitchClassNames[((pc%NumPitchClasses)+NumPitchClasses)%NumPitchClasses]
}

// Matrix is a chromagram: 12 rows of pitch-class energy over time frames.
// Matrix[pc][frame] is the energy of pitch class pc at frame index frame.
type Matrix [][]float64

// NewMatrix allocates a zeroed 12 x numFrames chroma matrix.
func NewMatrix(numFrames int) Matrix {
	m := make(Matrix, NumPitchClasses)
	for pc := range m {
		m[pc] = make([]float64, numFrames)
	}
	return m
}

// Valid reports whether m is a genuine chroma matrix: exactly 12 rows of
// equal length with at least one frame.
func (m Matrix) Valid() bool {
	if len(m) != NumPitchClasses {
		return false
	}

	frames := len(m[0])
	if frames == 0 {
		return false
	}
	for _, row := range m[1:] {
		if len(row) != frames {
			return false
		}
	}
	return true
}

// NumFrames returns the number of time frames, 0 for an empty matrix.
func (m Matrix) NumFrames() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Frame extracts the 12-element column vector at the given frame index.
func (m Matrix) Frame(frame int) []float64 {
	vec := make([]float64, len(m))
	for pc, row := range m {
		vec[pc] = row[frame]
	}
	return vec
}

// MeanProfile averages the matrix across time into a 12-element profile.
func (m Matrix) MeanProfile() []float64 {
	profile := make([]float64, len(m))
	frames := m.NumFrames()
	if frames == 0 {
		return profile
	}

	for pc, row := range m {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		profile[pc] = sum / float64(frames)
	}
	return profile
}

// ColumnAverage averages columns in [start, end) into a 12-element vector.
// Bounds must be valid; callers guard ranges.
func (m Matrix) ColumnAverage(start, end int) []float64 {
	vec := make([]float64, len(m))
	n := float64(end - start)
	for pc, row := range m {
		sum := 0.0
		for f := start; f < end; f++ {
			sum += row[f]
		}
		vec[pc] = sum / n
	}
	return vec
}
