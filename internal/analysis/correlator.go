package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// OffsetResult contains the detected offset and confidence score
type OffsetResult struct {
	OffsetSamples int     // Where local starts inside mixed (positive = later)
	OffsetSeconds float64 // Offset in seconds
	Confidence    float64 // Normalized correlation peak (0.0 to 1.0 for a clean match)
}

// DetectOffset finds where local begins inside mixed using cross-correlation
func DetectOffset(mixed, local []float64, sampleRate, downsampleFactor int) (*OffsetResult, error) {
	if len(mixed) == 0 {
		return nil, fmt.Errorf("reference audio data is empty")
	}
	if len(local) == 0 {
		return nil, fmt.Errorf("probe audio data is empty")
	}
	if downsampleFactor < 1 {
		downsampleFactor = 1
	}

	// Coarse search with downsampling
	mixedCoarse := downsample(mixed, downsampleFactor)
	localCoarse := downsample(local, downsampleFactor)

	mixedNorm := normalize(mixedCoarse)
	localNorm := normalize(localCoarse)

	correlation := crossCorrelateFFT(mixedNorm, localNorm)

	// result[k] means local should be shifted k samples to the right;
	// only non-negative lags are meaningful for a probe cut from the reference
	peakIdx, peakValue := findMaxPeak(correlation[:len(mixedNorm)])

	finalOffset := peakIdx * downsampleFactor

	return &OffsetResult{
		OffsetSamples: finalOffset,
		OffsetSeconds: float64(finalOffset) / float64(sampleRate),
		Confidence:    peakValue / float64(len(localNorm)),
	}, nil
}

// normalize scales audio data to have zero mean and unit variance
func normalize(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	mean, stdDev := stat.PopMeanStdDev(data, nil)

	// Silence has no variance; leave it centered but unscaled
	if stdDev == 0 {
		stdDev = 1.0
	}

	result := make([]float64, len(data))
	for i, v := range data {
		result[i] = (v - mean) / stdDev
	}

	return result
}

// crossCorrelateFFT performs FFT-based cross-correlation.
// Returns correlation array where peak indicates best alignment
func crossCorrelateFFT(signal1, signal2 []float64) []float64 {
	if len(signal1) == 0 || len(signal2) == 0 {
		return []float64{0}
	}

	n := len(signal1) + len(signal2) - 1
	fftSize := nextPowerOfTwo(n)

	padded1 := padToSize(signal1, fftSize)
	padded2 := padToSize(signal2, fftSize)

	fft := fourier.NewFFT(fftSize)

	fft1 := fft.Coefficients(nil, padded1)
	fft2 := fft.Coefficients(nil, padded2)

	// Multiply in frequency domain: FFT1 * conj(FFT2)
	product := make([]complex128, len(fft1))
	for i := range product {
		product[i] = fft1[i] * cmplx.Conj(fft2[i])
	}

	resultReal := fft.Sequence(nil, product)

	// Gonum FFT is unnormalized: Coefficients followed by Sequence multiplies by length
	for i := range resultReal {
		resultReal[i] /= float64(fftSize)
	}

	result := make([]float64, n)
	copy(result, resultReal[:n])

	return result
}

// findMaxPeak finds the index and value of the maximum peak in the correlation
func findMaxPeak(correlation []float64) (int, float64) {
	if len(correlation) == 0 {
		return 0, 0
	}

	maxIdx := 0
	maxVal := correlation[0]

	for i, v := range correlation {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}

	return maxIdx, maxVal
}

// nextPowerOfTwo returns the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power *= 2
	}
	return power
}

// padToSize pads a slice with zeros to reach the target size
func padToSize(data []float64, size int) []float64 {
	if len(data) >= size {
		return data
	}

	result := make([]float64, size)
	copy(result, data)
	return result
}

// downsample reduces the sample rate by taking every Nth sample
func downsample(data []float64, factor int) []float64 {
	if factor <= 1 {
		return data
	}

	result := make([]float64, 0, len(data)/factor+1)
	for i := 0; i < len(data); i += factor {
		result = append(result, data[i])
	}
	return result
}

// extractSegment returns a copy of data[start:end)
func extractSegment(data []float64, start, end int) ([]float64, error) {
	if start < 0 || end > len(data) || start >= end {
		return nil, fmt.Errorf("invalid segment bounds: [%d, %d) for data length %d",
			start, end, len(data))
	}

	segment := make([]float64, end-start)
	copy(segment, data[start:end])
	return segment, nil
}
