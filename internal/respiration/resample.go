package respiration

import (
	"fmt"
	"math"
	"time"
)

// DefaultMaxBuckets caps the span of the package level Resample.
const DefaultMaxBuckets = 1_000_000

// maxElapsedSeconds is the largest elapsed time a bucket start can hold as a
// time.Duration, about 292 years.
const maxElapsedSeconds = float64(math.MaxInt64 / int64(time.Second))

// Resampler averages raw samples into fixed-width buckets of elapsed time.
type Resampler struct {
	width      int
	classifier *Classifier
	maxBuckets int64
}

// ResamplerOption configures a Resampler.
type ResamplerOption func(*Resampler)

// WithMaxBuckets rejects recordings that span more than n buckets. Zero
// disables the limit.
func WithMaxBuckets(n int64) ResamplerOption {
	return func(r *Resampler) {
		r.maxBuckets = n
	}
}

// NewResampler validates the bucket width and thresholds.
func NewResampler(bucketWidthSeconds int, thresholds Thresholds, opts ...ResamplerOption) (*Resampler, error) {
	if bucketWidthSeconds <= 0 {
		return nil, NewInvalidConfigurationError("bucketWidthSeconds",
			fmt.Sprintf("must be a positive integer: %d given", bucketWidthSeconds))
	}

	classifier, err := NewClassifier(thresholds)
	if err != nil {
		return nil, err
	}

	r := &Resampler{
		width:      bucketWidthSeconds,
		classifier: classifier,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxBuckets < 0 {
		return nil, NewInvalidConfigurationError("maxBuckets", fmt.Sprintf("must not be negative: %d given", r.maxBuckets))
	}
	return r, nil
}

// BucketWidth returns the bucket width in seconds.
func (r *Resampler) BucketWidth() int {
	return r.width
}

// Classifier returns the zone classifier used for non-empty buckets.
func (r *Resampler) Classifier() *Classifier {
	return r.classifier
}

// BucketIndex returns floor(elapsedSeconds / width). The result is only
// meaningful for elapsed times Resample accepts.
func (r *Resampler) BucketIndex(elapsedSeconds float64) int64 {
	return int64(math.Floor(elapsedSeconds / float64(r.width)))
}

// Resample emits one point for every bucket index between the first and the
// last sample's bucket, inclusive. Buckets without samples are emitted with a
// nil mean and ZoneNone.
//
// Samples must be in non-decreasing elapsed order; a sample that goes back in
// time is reported as MalformedInputError rather than re-sorted.
func (r *Resampler) Resample(samples []RawSample) ([]ResampledPoint, error) {
	if len(samples) == 0 {
		return nil, NewEmptyRecordingError("resample")
	}

	prev := samples[0].ElapsedSeconds
	for i, s := range samples {
		if math.IsNaN(s.ElapsedSeconds) || math.IsInf(s.ElapsedSeconds, 0) {
			return nil, NewMalformedInputError(0, "", fmt.Sprintf("sample %d has no finite elapsed time", i+1), nil)
		}
		if math.Abs(s.ElapsedSeconds) > maxElapsedSeconds {
			return nil, NewMalformedInputError(0, "",
				fmt.Sprintf("sample %d elapsed time %gs is out of range", i+1, s.ElapsedSeconds), nil)
		}
		if s.ElapsedSeconds < prev {
			return nil, NewMalformedInputError(0, "",
				fmt.Sprintf("sample %d goes back in time: %gs after %gs", i+1, s.ElapsedSeconds, prev), nil)
		}
		prev = s.ElapsedSeconds
	}

	first := r.BucketIndex(samples[0].ElapsedSeconds)
	last := r.BucketIndex(samples[len(samples)-1].ElapsedSeconds)
	span := last - first + 1
	if r.maxBuckets > 0 && span > r.maxBuckets {
		return nil, NewMalformedInputError(0, "",
			fmt.Sprintf("recording spans %d buckets of %ds, limit is %d", span, r.width, r.maxBuckets), nil)
	}

	sums := make([]float64, span)
	counts := make([]int, span)

	for _, s := range samples {
		idx := r.BucketIndex(s.ElapsedSeconds) - first
		sums[idx] += s.RateBpm
		counts[idx]++
	}

	points := make([]ResampledPoint, span)
	for i := range points {
		index := first + int64(i)
		start := index * int64(r.width)

		p := ResampledPoint{
			Index:     index,
			Elapsed:   time.Duration(start) * time.Second,
			TimeOfDay: ClockFromSeconds(float64(start)),
			Count:     counts[i],
		}
		if counts[i] > 0 {
			mean := sums[i] / float64(counts[i])
			p.MeanRateBpm = &mean
			p.Zone = r.classifier.Classify(mean)
		}
		points[i] = p
	}

	return points, nil
}

// Resample is a one-off resampling limited to DefaultMaxBuckets.
func Resample(samples []RawSample, bucketWidthSeconds int, thresholds Thresholds) ([]ResampledPoint, error) {
	r, err := NewResampler(bucketWidthSeconds, thresholds, WithMaxBuckets(DefaultMaxBuckets))
	if err != nil {
		return nil, err
	}
	return r.Resample(samples)
}
