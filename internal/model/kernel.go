package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelRidge is the kernel-machine family: ridge regression in an RBF
// feature space. C is the inverse regularization strength and Gamma the RBF
// bandwidth, mirroring the usual SVM-style parameterization.
//
// The training matrix is retained after Fit because predictions are kernel
// expansions over the training rows.
type KernelRidge struct {
	C     float64
	Gamma float64

	XTrain [][]float64
	Alpha  []float64
}

// NewKernelRidge returns a kernel machine with moderate defaults.
func NewKernelRidge() *KernelRidge {
	return &KernelRidge{C: 1.0, Gamma: 0.1}
}

func (k *KernelRidge) Name() string { return "kernel" }

func (k *KernelRidge) Configure(params Configuration) error {
	for name := range params {
		switch name {
		case "C", "gamma":
		default:
			return &InvalidParameterError{Name: name, Value: params[name], Reason: "unknown parameter for kernel machine"}
		}
	}
	if v, ok, err := params.Float("C"); err != nil {
		return err
	} else if ok {
		if v <= 0 {
			return &InvalidParameterError{Name: "C", Value: v, Reason: "must be positive"}
		}
		k.C = v
	}
	if v, ok, err := params.Float("gamma"); err != nil {
		return err
	} else if ok {
		if v <= 0 {
			return &InvalidParameterError{Name: "gamma", Value: v, Reason: "must be positive"}
		}
		k.Gamma = v
	}
	return nil
}

func (k *KernelRidge) Clone() Regressor {
	return &KernelRidge{C: k.C, Gamma: k.Gamma}
}

// Fit solves (K + I/C) alpha = y where K is the RBF Gram matrix. The ridge
// term keeps the system positive definite for any C > 0.
func (k *KernelRidge) Fit(x *mat.Dense, y []float64) error {
	if err := checkFit(x, y); err != nil {
		return err
	}
	rows, cols := x.Dims()

	xt := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		xt[i] = rowTo(nil, x, i)
	}

	gram := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			gram.SetSym(i, j, rbf(xt[i], xt[j], k.Gamma))
		}
		gram.SetSym(i, i, gram.At(i, i)+1.0/k.C)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return fmt.Errorf("kernel ridge fit: gram matrix is not positive definite (n=%d, p=%d)", rows, cols)
	}
	var alpha mat.VecDense
	if err := chol.SolveVecTo(&alpha, mat.NewVecDense(rows, append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("kernel ridge fit: solve: %w", err)
	}

	k.XTrain = xt
	k.Alpha = make([]float64, rows)
	copy(k.Alpha, alpha.RawVector().Data)
	return nil
}

func (k *KernelRidge) Predict(x *mat.Dense) ([]float64, error) {
	if k.Alpha == nil {
		return nil, &NotFittedError{Op: "KernelRidge.Predict"}
	}
	rows, cols := x.Dims()
	if cols != len(k.XTrain[0]) {
		return nil, &ShapeMismatchError{What: "feature columns", Want: len(k.XTrain[0]), Got: cols}
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row = rowTo(row, x, i)
		s := 0.0
		for j, xj := range k.XTrain {
			s += k.Alpha[j] * rbf(row, xj, k.Gamma)
		}
		out[i] = s
	}
	return out, nil
}

func rbf(a, b []float64, gamma float64) float64 {
	d2 := 0.0
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return math.Exp(-gamma * d2)
}
