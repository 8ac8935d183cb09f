package fits

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// orientationAngles returns the sign-convention angles of the first three
// axes. Missing axes count as positive increments.
func orientationAngles(h *Header) (theta1, theta2, theta3 float64) {
	cdelt := [3]float64{1, 1, 1}
	crval2 := 0.0
	for i := 0; i < len(h.Axes) && i < 3; i++ {
		cdelt[i] = h.Axes[i].CDELT
	}
	if len(h.Axes) > 1 {
		crval2 = h.Axes[1].CRVAL
	}

	if cdelt[0] >= 0 {
		theta3 = math.Pi
	}
	if cdelt[1] <= 0 {
		theta2 = math.Pi
	}
	if crval2 >= -90 && crval2 < 0 {
		theta2 += math.Pi
	}
	theta1 = math.Pi / 2
	if cdelt[2] < 0 {
		theta1 += math.Pi
	}
	return theta1, theta2, theta3
}

// orientation builds the 4x4 voxel to physical matrix. The rotation maps
// (i, j, k) onto right-handed display axes from the increment signs; the
// translation is the native origin or centers the volume.
func orientation(h *Header, e Extent, native bool) *mat.Dense {
	t1, t2, t3 := orientationAngles(h)

	r := mat.NewDense(3, 3, []float64{
		snap(math.Cos(t2) * math.Cos(t3)), 0, 0,
		0, 0, snap(math.Sin(t1) * math.Cos(t3)),
		0, snap(-math.Sin(t1) * math.Cos(t2)), 0,
	})

	var t mat.VecDense
	if native {
		t.CloneFromVec(mat.NewVecDense(3, e.Origin[:]))
	} else {
		dims := e.Dims()
		half := mat.NewVecDense(3, []float64{
			float64(dims[0]-1) / 2,
			float64(dims[1]-1) / 2,
			float64(dims[2]-1) / 2,
		})
		t.MulVec(r, half)
		t.ScaleVec(-1, &t)
	}

	m := mat.NewDense(4, 4, nil)
	m.Slice(0, 3, 0, 3).(*mat.Dense).Copy(r)
	for i := 0; i < 3; i++ {
		m.Set(i, 3, t.AtVec(i))
	}
	m.Set(3, 3, 1)
	return m
}

// snap removes rounding noise from products of cos and sin of multiples
// of pi/2.
func snap(v float64) float64 {
	return math.Round(v)
}
