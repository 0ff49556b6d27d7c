// Package pose parameterizes the rigid-body orientation and translation
// of a specimen relative to the imaging axis. Two parameterizations are
// provided: ZYZ Euler angles (the cryo-EM convention) and unit
// quaternions. Both convert to a proper rotation matrix (determinant +1)
// and compose exactly.
//
// Poses are immutable values: composing or converting returns new values.
package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"cryosim/internal/models"
)

// AngleUnit selects the unit of angular pose parameters.
type AngleUnit int

const (
	// Degrees marks angles specified in degrees.
	Degrees AngleUnit = iota

	// Radians marks angles specified in radians.
	Radians
)

// Pose is a rigid-body transform: a proper rotation followed by a
// translation in angstroms. Translations are in the image plane (X, Y)
// unless a Z offset is explicitly set.
type Pose interface {
	// RotationMatrix returns the 3x3 rotation matrix, determinant +1.
	RotationMatrix() *mat.Dense

	// Translation returns the (x, y, z) offsets in angstroms.
	Translation() [3]float64
}

// Euler is a pose parameterized by intrinsic ZYZ Euler angles
// (phi about Z, theta about the new Y, psi about the final Z).
type Euler struct {
	// Phi, Theta, Psi are the ZYZ rotation angles, in Unit.
	Phi, Theta, Psi float64

	// Unit records whether the angles above are degrees or radians.
	Unit AngleUnit

	// Tx, Ty, Tz are translation offsets in angstroms. Tz is zero for
	// in-plane translation.
	Tx, Ty, Tz float64
}

// Identity returns the identity pose in radians.
func Identity() Euler {
	return Euler{Unit: Radians}
}

// radians returns the three angles normalized to radians.
func (e Euler) radians() (phi, theta, psi float64) {
	if e.Unit == Degrees {
		const d = math.Pi / 180
		return e.Phi * d, e.Theta * d, e.Psi * d
	}
	return e.Phi, e.Theta, e.Psi
}

// RotationMatrix returns Rz(phi) * Ry(theta) * Rz(psi).
func (e Euler) RotationMatrix() *mat.Dense {
	phi, theta, psi := e.radians()
	cf, sf := math.Cos(phi), math.Sin(phi)
	ct, st := math.Cos(theta), math.Sin(theta)
	cp, sp := math.Cos(psi), math.Sin(psi)
	return mat.NewDense(3, 3, []float64{
		cf*ct*cp - sf*sp, -cf*ct*sp - sf*cp, cf * st,
		sf*ct*cp + cf*sp, -sf*ct*sp + cf*cp, sf * st,
		-st * cp, st * sp, ct,
	})
}

// Translation returns the (x, y, z) offsets in angstroms.
func (e Euler) Translation() [3]float64 {
	return [3]float64{e.Tx, e.Ty, e.Tz}
}

// FromRotationMatrix recovers ZYZ Euler angles (in radians) from a proper
// rotation matrix. When theta is 0 or pi the decomposition is degenerate
// (gimbal lock) and psi is folded into phi.
func FromRotationMatrix(r *mat.Dense) (Euler, error) {
	if rows, cols := r.Dims(); rows != 3 || cols != 3 {
		return Euler{}, fmt.Errorf("rotation matrix is %dx%d, want 3x3: %w",
			rows, cols, models.ErrShapeMismatch)
	}
	if det := mat.Det(r); math.Abs(det-1) > 1e-6 {
		return Euler{}, fmt.Errorf("rotation matrix determinant %g, want +1: %w",
			det, models.ErrInvalidParameter)
	}

	ct := r.At(2, 2)
	// Clamp against rounding before acos.
	ct = math.Max(-1, math.Min(1, ct))
	theta := math.Acos(ct)

	var phi, psi float64
	if math.Abs(math.Sin(theta)) < 1e-12 {
		// Gimbal lock: only phi+psi (theta=0) or phi-psi (theta=pi) is
		// determined. Put everything in phi.
		phi = math.Atan2(r.At(1, 0), r.At(0, 0))
		psi = 0
	} else {
		phi = math.Atan2(r.At(1, 2), r.At(0, 2))
		psi = math.Atan2(r.At(2, 1), -r.At(2, 0))
	}
	return Euler{Phi: phi, Theta: theta, Psi: psi, Unit: Radians}, nil
}

// Quaternion is a pose parameterized by a unit quaternion.
type Quaternion struct {
	// Q is the rotation quaternion. It is normalized by NewQuaternion.
	Q quat.Number

	// Tx, Ty, Tz are translation offsets in angstroms.
	Tx, Ty, Tz float64
}

// NewQuaternion builds a quaternion pose, normalizing q to unit length.
// A near-zero quaternion is rejected since it cannot represent a
// rotation.
func NewQuaternion(q quat.Number, tx, ty, tz float64) (Quaternion, error) {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n < 1e-12 {
		return Quaternion{}, fmt.Errorf("quaternion norm %g too small: %w",
			n, models.ErrInvalidParameter)
	}
	return Quaternion{
		Q:  quat.Scale(1/n, q),
		Tx: tx, Ty: ty, Tz: tz,
	}, nil
}

// RotationMatrix converts the unit quaternion to its rotation matrix.
func (p Quaternion) RotationMatrix() *mat.Dense {
	w, x, y, z := p.Q.Real, p.Q.Imag, p.Q.Jmag, p.Q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// Translation returns the (x, y, z) offsets in angstroms.
func (p Quaternion) Translation() [3]float64 {
	return [3]float64{p.Tx, p.Ty, p.Tz}
}

// QuaternionFromMatrix recovers a unit quaternion from a proper rotation
// matrix using the trace method.
func QuaternionFromMatrix(r *mat.Dense) (Quaternion, error) {
	if rows, cols := r.Dims(); rows != 3 || cols != 3 {
		return Quaternion{}, fmt.Errorf("rotation matrix is %dx%d, want 3x3: %w",
			rows, cols, models.ErrShapeMismatch)
	}
	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{
			Real: s / 4,
			Imag: (r.At(2, 1) - r.At(1, 2)) / s,
			Jmag: (r.At(0, 2) - r.At(2, 0)) / s,
			Kmag: (r.At(1, 0) - r.At(0, 1)) / s,
		}
	case r.At(0, 0) > r.At(1, 1) && r.At(0, 0) > r.At(2, 2):
		s := math.Sqrt(1+r.At(0, 0)-r.At(1, 1)-r.At(2, 2)) * 2
		q = quat.Number{
			Real: (r.At(2, 1) - r.At(1, 2)) / s,
			Imag: s / 4,
			Jmag: (r.At(0, 1) + r.At(1, 0)) / s,
			Kmag: (r.At(0, 2) + r.At(2, 0)) / s,
		}
	case r.At(1, 1) > r.At(2, 2):
		s := math.Sqrt(1+r.At(1, 1)-r.At(0, 0)-r.At(2, 2)) * 2
		q = quat.Number{
			Real: (r.At(0, 2) - r.At(2, 0)) / s,
			Imag: (r.At(0, 1) + r.At(1, 0)) / s,
			Jmag: s / 4,
			Kmag: (r.At(1, 2) + r.At(2, 1)) / s,
		}
	default:
		s := math.Sqrt(1+r.At(2, 2)-r.At(0, 0)-r.At(1, 1)) * 2
		q = quat.Number{
			Real: (r.At(1, 0) - r.At(0, 1)) / s,
			Imag: (r.At(0, 2) + r.At(2, 0)) / s,
			Jmag: (r.At(1, 2) + r.At(2, 1)) / s,
			Kmag: s / 4,
		}
	}
	return NewQuaternion(q, 0, 0, 0)
}

// Compose returns the pose equivalent to applying first, then second:
// rotation R2*R1 and translation R2*t1 + t2. The composition law holds
// exactly for the rotation matrices and translations.
func Compose(second, first Pose) Composed {
	r1 := first.RotationMatrix()
	r2 := second.RotationMatrix()
	var r mat.Dense
	r.Mul(r2, r1)

	t1 := first.Translation()
	t2 := second.Translation()
	v := mat.NewVecDense(3, []float64{t1[0], t1[1], t1[2]})
	var rv mat.VecDense
	rv.MulVec(r2, v)

	return Composed{
		r: &r,
		t: [3]float64{rv.AtVec(0) + t2[0], rv.AtVec(1) + t2[1], rv.AtVec(2) + t2[2]},
	}
}

// Composed is the result of composing two poses. It satisfies Pose.
type Composed struct {
	r *mat.Dense
	t [3]float64
}

// RotationMatrix returns the composed rotation.
func (c Composed) RotationMatrix() *mat.Dense { return c.r }

// Translation returns the composed translation in angstroms.
func (c Composed) Translation() [3]float64 { return c.t }
