package data

import (
	"math/rand"

	"github.com/born-ml/convnet/internal/tensor"
)

// Synthetic generates a labeled pattern data set for demonstrations: class
// k lights a horizontal band whose position depends on k, plus Gaussian
// noise of standard deviation noise. Labels cycle through the classes.
func Synthetic(size tensor.Size, classes, n int, noise float64, rng *rand.Rand) *Dataset {
	x := tensor.Zeros(tensor.NewShape(size, n))
	labels := make([]int, n)
	band := max(size.H()/classes, 1)
	for i := 0; i < n; i++ {
		k := i % classes
		labels[i] = k
		top := (k * size.H() / classes) % size.H()
		for c := 0; c < size.C(); c++ {
			for h := 0; h < size.H(); h++ {
				for w := 0; w < size.W(); w++ {
					v := rng.NormFloat64() * noise
					if h >= top && h < top+band {
						v += 0.8
					}
					x.Set(v, h, w, c, i)
				}
			}
		}
	}
	y, err := OneHot(labels, classes)
	if err != nil {
		panic(err) // labels cycle through [0, classes)
	}
	return &Dataset{X: x, Y: y, Labels: labels}
}
